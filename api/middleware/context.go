package middleware

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const (
	ctxAccountID contextKey = "account_id"
	ctxUsername  contextKey = "username"
)

// AccountIDFromContext returns the authenticated account, if any.
func AccountIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	if ctx == nil {
		return primitive.NilObjectID, false
	}
	id, ok := ctx.Value(ctxAccountID).(primitive.ObjectID)
	if !ok || id.IsZero() {
		return primitive.NilObjectID, false
	}
	return id, true
}

func UsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUsername).(string); ok {
		return v
	}
	return ""
}

// WithAccountID injects the account identifier into the context.
func WithAccountID(ctx context.Context, id primitive.ObjectID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccountID, id)
}

func withUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxUsername, username)
}
