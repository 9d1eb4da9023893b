// Package remote implements the comment API client against a CMS admin
// backend. It satisfies syncer.Client over plain JSON/HTTP with bearer
// authentication and a client-side rate limit.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/syncer"
)

const maxErrBody = 512

// Client talks to one document's comment collection.
type Client struct {
	baseURL  string
	token    string
	document string
	http     *http.Client
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. "https://cms.example.com/api".
	BaseURL string
	// Token is sent as a bearer token on every request.
	Token string
	// Document identifies the document whose comments are managed.
	Document string
	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration
	Log     zerolog.Logger
}

// New creates a comment API client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  opts.BaseURL,
		token:    opts.Token,
		document: opts.Document,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		log:      opts.Log,
	}
}

type authorPayload struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type replyPayload struct {
	ID        int64          `json:"id"`
	Text      string         `json:"text"`
	Author    *authorPayload `json:"author,omitempty"`
	CreatedAt int64          `json:"created_at"`
}

type commentPayload struct {
	ID          int64          `json:"id"`
	ContentPath string         `json:"contentpath"`
	Position    string         `json:"position,omitempty"`
	Text        string         `json:"text"`
	Author      *authorPayload `json:"author,omitempty"`
	CreatedAt   int64          `json:"created_at"`
	Resolved    bool           `json:"resolved"`
	Replies     []replyPayload `json:"replies,omitempty"`
}

// ListComments fetches every comment thread on the document.
func (c *Client) ListComments(ctx context.Context) ([]syncer.RemoteComment, error) {
	var payload []commentPayload
	if err := c.do(ctx, http.MethodGet, c.path("comments"), nil, &payload); err != nil {
		return nil, err
	}

	out := make([]syncer.RemoteComment, 0, len(payload))
	for _, p := range payload {
		out = append(out, foldComment(p))
	}
	return out, nil
}

// CreateComment posts a new comment thread.
func (c *Client) CreateComment(ctx context.Context, nc syncer.NewComment) (syncer.Saved, error) {
	body := map[string]any{
		"contentpath": nc.ContentPath,
		"position":    nc.Position,
		"text":        nc.Text,
	}
	var p commentPayload
	if err := c.do(ctx, http.MethodPost, c.path("comments"), body, &p); err != nil {
		return syncer.Saved{}, err
	}
	return saved(p.ID, p.Author, p.CreatedAt), nil
}

// UpdateComment replaces a comment's text.
func (c *Client) UpdateComment(ctx context.Context, remoteID int64, text string) (syncer.Saved, error) {
	var p commentPayload
	path := c.path("comments/%d", remoteID)
	if err := c.do(ctx, http.MethodPut, path, map[string]any{"text": text}, &p); err != nil {
		return syncer.Saved{}, err
	}
	return saved(p.ID, p.Author, p.CreatedAt), nil
}

// DeleteComment removes a comment thread.
func (c *Client) DeleteComment(ctx context.Context, remoteID int64) error {
	return c.do(ctx, http.MethodDelete, c.path("comments/%d", remoteID), nil, nil)
}

// ResolveComment sets a comment's resolved flag.
func (c *Client) ResolveComment(ctx context.Context, remoteID int64, resolved bool) error {
	path := c.path("comments/%d/resolve", remoteID)
	return c.do(ctx, http.MethodPost, path, map[string]any{"resolved": resolved}, nil)
}

// CreateReply posts a reply under an existing comment.
func (c *Client) CreateReply(ctx context.Context, commentRemoteID int64, text string) (syncer.Saved, error) {
	var p replyPayload
	path := c.path("comments/%d/replies", commentRemoteID)
	if err := c.do(ctx, http.MethodPost, path, map[string]any{"text": text}, &p); err != nil {
		return syncer.Saved{}, err
	}
	return saved(p.ID, p.Author, p.CreatedAt), nil
}

// UpdateReply replaces a reply's text.
func (c *Client) UpdateReply(ctx context.Context, commentRemoteID, replyRemoteID int64, text string) (syncer.Saved, error) {
	var p replyPayload
	path := c.path("comments/%d/replies/%d", commentRemoteID, replyRemoteID)
	if err := c.do(ctx, http.MethodPut, path, map[string]any{"text": text}, &p); err != nil {
		return syncer.Saved{}, err
	}
	return saved(p.ID, p.Author, p.CreatedAt), nil
}

// DeleteReply removes a reply.
func (c *Client) DeleteReply(ctx context.Context, commentRemoteID, replyRemoteID int64) error {
	return c.do(ctx, http.MethodDelete, c.path("comments/%d/replies/%d", commentRemoteID, replyRemoteID), nil, nil)
}

func (c *Client) path(format string, args ...any) string {
	return fmt.Sprintf("%s/documents/%s/%s", c.baseURL, c.document, fmt.Sprintf(format, args...))
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Trace().Str("method", method).Str("url", url).Msg("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return fmt.Errorf("%s %s: unexpected status %s: %s", method, url, resp.Status, bytes.TrimSpace(snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func foldComment(p commentPayload) syncer.RemoteComment {
	rc := syncer.RemoteComment{
		RemoteID:    p.ID,
		ContentPath: p.ContentPath,
		Position:    p.Position,
		Text:        p.Text,
		Author:      foldAuthor(p.Author),
		Date:        fromMillis(p.CreatedAt),
		Resolved:    p.Resolved,
	}
	for _, rp := range p.Replies {
		rc.Replies = append(rc.Replies, syncer.RemoteReply{
			RemoteID: rp.ID,
			Text:     rp.Text,
			Author:   foldAuthor(rp.Author),
			Date:     fromMillis(rp.CreatedAt),
		})
	}
	return rc
}

func foldAuthor(a *authorPayload) *comments.Author {
	if a == nil {
		return nil
	}
	return &comments.Author{ID: a.ID, Name: a.Name, AvatarURL: a.AvatarURL}
}

func saved(id int64, a *authorPayload, createdAt int64) syncer.Saved {
	return syncer.Saved{RemoteID: id, Author: foldAuthor(a), Date: fromMillis(createdAt)}
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
