package common

import "context"

type ctxKey string

const (
	userIDKey   ctxKey = "auth/user-code"
	userNameKey ctxKey = "auth/user-name"
)

// WithUserID stores the authenticated user code on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user code from the context if present.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserName stores the authenticated staff user name (the invoice prefix).
func WithUserName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, userNameKey, name)
}

// UserName returns the authenticated staff user name if present.
func UserName(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(userNameKey).(string)
	return name, ok && name != ""
}
