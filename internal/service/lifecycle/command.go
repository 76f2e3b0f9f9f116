package lifecycle

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

// Command identifies the record a mutation targets and the concurrency token
// the caller last read for it.
type Command struct {
	ID    uuid.UUID
	Token string
}

// FieldErrors returns the problems with c, if any.
func (c Command) FieldErrors() []domain.FieldError {
	var errs []domain.FieldError
	if c.ID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, domain.FieldError{Field: "updatedAt", Message: "required"})
	}
	return errs
}

// Validate checks all fields and collects all errors.
func (c Command) Validate() error {
	if errs := c.FieldErrors(); len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
