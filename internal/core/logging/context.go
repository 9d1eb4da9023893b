package logging

import "context"

type contextKey string

const (
	documentIDKey contextKey = "document_id"
	commentIDKey  contextKey = "comment_id"
)

// WithDocumentID adds a document ID to the context.
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, documentIDKey, documentID)
}

// WithCommentID adds a comment's local ID to the context.
func WithCommentID(ctx context.Context, commentID int64) context.Context {
	return context.WithValue(ctx, commentIDKey, commentID)
}

// GetDocumentID retrieves the document ID from the context.
// Returns empty string if not present.
func GetDocumentID(ctx context.Context) string {
	if id, ok := ctx.Value(documentIDKey).(string); ok {
		return id
	}
	return ""
}

// GetCommentID retrieves the comment local ID from the context.
// Returns zero if not present.
func GetCommentID(ctx context.Context) int64 {
	if id, ok := ctx.Value(commentIDKey).(int64); ok {
		return id
	}
	return 0
}
