package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("email", "required")

	if got := err.Error(); got != "validation: email: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "name", Message: "required"},
		{Field: "email", Message: "invalid format"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
}

func TestRuleError_UnwrapsToValidation(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("change status: %w", NewRuleError(CodeTransitionForbidden, "cannot move"))

	if !errors.Is(err, ErrValidation) {
		t.Fatal("RuleError should unwrap to ErrValidation")
	}
	var re *RuleError
	if !errors.As(err, &re) || re.Code != CodeTransitionForbidden {
		t.Fatalf("errors.As RuleError failed: %v", err)
	}
}

func TestConflictError_UnwrapsToConflict(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("update: %w", &ConflictError{Supplied: "a", Stored: "b"})

	if !errors.Is(err, ErrConflict) {
		t.Fatal("ConflictError should unwrap to ErrConflict")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("ConflictError must not match ErrValidation")
	}
}

func TestBatchError_UnwrapsToValidation(t *testing.T) {
	t.Parallel()

	err := &BatchError{Records: []RecordError{
		{ID: uuid.New(), Code: CodeNotFound, Message: "not found"},
		{ID: uuid.New(), Code: CodeConflictDetected, Message: "stale"},
	}}

	if !errors.Is(err, ErrValidation) {
		t.Fatal("BatchError should unwrap to ErrValidation")
	}
	if got := err.Error(); got != "batch rejected: 2 record errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrValidation,
		ErrUnauthorized, ErrForbidden, ErrConflict,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel errors %d and %d should not match", i, j)
			}
		}
	}
}
