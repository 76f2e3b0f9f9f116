package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
)

// Machine-readable outcome codes carried by the response envelope.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeTransitionForbidden  = "TRANSITION_FORBIDDEN"
	CodeConflictDetected     = "CONFLICT_DETECTED"
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeDuplicateEmail       = "DUPLICATE_EMAIL"
	CodeArchiveBeforeDelete  = "ARCHIVE_BEFORE_DELETE"
	CodeAlreadyArchived      = "ALREADY_ARCHIVED"
	CodeNotArchived          = "NOT_ARCHIVED"
	CodeArchiveNotSupported  = "ARCHIVE_NOT_SUPPORTED"
	CodeConversionIneligible = "CONVERSION_NOT_ELIGIBLE"
	CodeRelationNotFound     = "RELATION_NOT_FOUND"
	CodeHasDependents        = "HAS_DEPENDENTS"
	CodeTokenMissing         = "TOKEN_MISSING"
	CodeBulkValidation       = "BULK_VALIDATION_FAILED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInternal             = "INTERNAL_ERROR"
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// RuleError is a business-rule rejection: the input is well formed but the
// requested mutation is not permitted in the record's current state.
type RuleError struct {
	Code    string
	Message string
	Field   string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuleError) Unwrap() error { return ErrValidation }

// NewRuleError creates a RuleError with the given code.
func NewRuleError(code, message string) *RuleError {
	return &RuleError{Code: code, Message: message}
}

// ConflictError reports a concurrency token mismatch.
type ConflictError struct {
	Supplied string
	Stored   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrency token mismatch: supplied %q, stored %q", e.Supplied, e.Stored)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// RecordError is one per-record failure inside a rejected batch.
type RecordError struct {
	ID      uuid.UUID
	Code    string
	Message string
}

// BatchError rejects a whole batch. No record in it was mutated.
type BatchError struct {
	Records []RecordError
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch rejected: %d record errors", len(e.Records))
}

func (e *BatchError) Unwrap() error { return ErrValidation }
