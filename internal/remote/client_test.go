package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/syncer"
	"github.com/colonyops/margin/internal/remote"
)

func testClient(t *testing.T, handler http.Handler) *remote.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return remote.New(remote.Options{
		BaseURL:  srv.URL + "/api",
		Token:    "secret-token",
		Document: "42",
		Log:      zerolog.Nop(),
	})
}

func TestListComments(t *testing.T) {
	var gotAuth, gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[
			{
				"id": 7,
				"contentpath": "blocks.0.caption",
				"position": "10-14",
				"text": "typo here",
				"author": {"id": 3, "name": "sam"},
				"created_at": 1748876645000,
				"resolved": false,
				"replies": [
					{"id": 70, "text": "fixed", "created_at": 1748876705000}
				]
			},
			{"id": 8, "contentpath": "title", "text": "old", "created_at": 1748876645000, "resolved": true}
		]`))
	}))

	got, err := c.ListComments(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "/api/documents/42/comments", gotPath)

	want := []syncer.RemoteComment{
		{
			RemoteID:    7,
			ContentPath: "blocks.0.caption",
			Position:    "10-14",
			Text:        "typo here",
			Author:      &comments.Author{ID: 3, Name: "sam"},
			Date:        time.UnixMilli(1748876645000).UTC(),
			Replies: []syncer.RemoteReply{
				{RemoteID: 70, Text: "fixed", Date: time.UnixMilli(1748876705000).UTC()},
			},
		},
		{
			RemoteID:    8,
			ContentPath: "title",
			Text:        "old",
			Resolved:    true,
			Date:        time.UnixMilli(1748876645000).UTC(),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListComments mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateComment(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/documents/42/comments", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 99, "text": "hello", "created_at": 1748876645000}`))
	}))

	got, err := c.CreateComment(context.Background(), syncer.NewComment{
		ContentPath: "body",
		Position:    "0-5",
		Text:        "hello",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(99), got.RemoteID)
	assert.Equal(t, time.UnixMilli(1748876645000).UTC(), got.Date)
	assert.Equal(t, map[string]any{"contentpath": "body", "position": "0-5", "text": "hello"}, gotBody)
}

func TestUpdateComment(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/documents/42/comments/7", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 7, "text": "edited", "created_at": 1748876645000}`))
	}))

	got, err := c.UpdateComment(context.Background(), 7, "edited")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.RemoteID)
}

func TestDeleteComment(t *testing.T) {
	var gotMethod, gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.DeleteComment(context.Background(), 7))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/documents/42/comments/7", gotPath)
}

func TestResolveComment(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/documents/42/comments/7/resolve", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.ResolveComment(context.Background(), 7, true))
	assert.Equal(t, map[string]any{"resolved": true}, gotBody)
}

func TestReplyEndpoints(t *testing.T) {
	var paths []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = w.Write([]byte(`{"id": 70, "text": "x", "created_at": 1748876645000}`))
		}
	}))

	ctx := context.Background()

	created, err := c.CreateReply(ctx, 7, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(70), created.RemoteID)

	_, err = c.UpdateReply(ctx, 7, 70, "y")
	require.NoError(t, err)

	require.NoError(t, c.DeleteReply(ctx, 7, 70))

	assert.Equal(t, []string{
		"POST /api/documents/42/comments/7/replies",
		"PUT /api/documents/42/comments/7/replies/70",
		"DELETE /api/documents/42/comments/7/replies/70",
	}, paths)
}

func TestErrorStatusIncludesBodySnippet(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "document is locked"}`))
	}))

	_, err := c.UpdateComment(context.Background(), 7, "edited")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "document is locked")
}

func TestContextCancellation(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ListComments(ctx)
	assert.Error(t, err)
}
