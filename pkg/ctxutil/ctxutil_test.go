package ctxutil

import (
	"context"
	"testing"
)

func TestWithOperator_And_OperatorFromCtx(t *testing.T) {
	t.Parallel()

	ctx := WithOperator(context.Background(), "dana@wdi.co.il")

	got, ok := OperatorFromCtx(ctx)
	if !ok {
		t.Fatal("expected ok=true for operator")
	}
	if got != "dana@wdi.co.il" {
		t.Fatalf("expected dana@wdi.co.il, got %s", got)
	}
}

func TestOperatorFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got, ok := OperatorFromCtx(context.Background())
	if ok {
		t.Fatal("expected ok=false for empty context")
	}
	if got != "" {
		t.Fatalf("expected empty operator, got %s", got)
	}
}

func TestOperatorFromCtx_Blank(t *testing.T) {
	t.Parallel()

	ctx := WithOperator(context.Background(), "   ")

	if _, ok := OperatorFromCtx(ctx); ok {
		t.Fatal("expected ok=false for blank operator")
	}
}

func TestOperatorFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("operator"), 42)

	if _, ok := OperatorFromCtx(ctx); ok {
		t.Fatal("expected ok=false for wrong type")
	}
}

func TestWithRequestID_And_RequestIDFromCtx(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-123")

	got := RequestIDFromCtx(ctx)
	if got != "req-123" {
		t.Fatalf("expected req-123, got %s", got)
	}
}

func TestRequestIDFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got := RequestIDFromCtx(context.Background())
	if got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}

func TestRequestIDFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("request_id"), 12345)

	got := RequestIDFromCtx(ctx)
	if got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}
