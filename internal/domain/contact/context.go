package contact

import "context"

type submissionIDKey struct{}

// WithSubmissionID attaches the client-chosen submission id to ctx so a
// Dispatcher can deduplicate repeated posts of the same form.
func WithSubmissionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, submissionIDKey{}, id)
}

// SubmissionID returns the id set by WithSubmissionID, or "".
func SubmissionID(ctx context.Context) string {
	id, _ := ctx.Value(submissionIDKey{}).(string)
	return id
}
