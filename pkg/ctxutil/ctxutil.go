package ctxutil

import (
	"context"
	"strings"
)

type ctxKey string

const (
	operatorKey  ctxKey = "operator"
	requestIDKey ctxKey = "request_id"
)

// PublicIntakeOperator is recorded as the performer of unauthenticated
// website submissions.
const PublicIntakeOperator = "public-intake"

// WithOperator stores the acting operator identity in the context.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey, operator)
}

// OperatorFromCtx extracts the operator identity from the context.
// Returns "" and false if the value is missing, blank, or of the wrong type.
func OperatorFromCtx(ctx context.Context) (string, bool) {
	op, ok := ctx.Value(operatorKey).(string)
	if !ok || strings.TrimSpace(op) == "" {
		return "", false
	}
	return op, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
