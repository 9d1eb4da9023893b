package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetDocumentID(ctx))

	ctx = WithDocumentID(ctx, "42")
	assert.Equal(t, "42", GetDocumentID(ctx))
}

func TestCommentIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Zero(t, GetCommentID(ctx))

	ctx = WithCommentID(ctx, 7)
	assert.Equal(t, int64(7), GetCommentID(ctx))
}
