package client

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
)

// CreateInput holds the parameters for a manually entered client.
type CreateInput struct {
	Name    string
	Email   string
	Phone   *string
	Company *string
	Note    string
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate() error {
	var errs []domain.FieldError
	errs = validateName(errs, strings.TrimSpace(i.Name))
	errs = validateEmail(errs, domain.NormalizeEmail(i.Email))
	errs = validateContact(errs, i.Phone, i.Company)
	if len(i.Note) > 5000 {
		errs = append(errs, domain.FieldError{Field: "note", Message: "max 5000 characters"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateInput holds a partial client edit.
type UpdateInput struct {
	ID      uuid.UUID
	Token   string
	Name    *string
	Email   *string
	Phone   *string
	Company *string
	Note    *string
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate() error {
	errs := lifecycle.Command{ID: i.ID, Token: i.Token}.FieldErrors()
	if i.Name != nil {
		errs = validateName(errs, strings.TrimSpace(*i.Name))
	}
	if i.Email != nil {
		errs = validateEmail(errs, domain.NormalizeEmail(*i.Email))
	}
	errs = validateContact(errs, i.Phone, i.Company)
	if i.Note != nil && len(*i.Note) > 5000 {
		errs = append(errs, domain.FieldError{Field: "note", Message: "max 5000 characters"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ListInput selects a page of clients.
type ListInput struct {
	Status *domain.ClientStatus
	Search string
	Page   domain.Page
}

// Validate checks all fields and collects all errors.
func (i ListInput) Validate() error {
	if i.Status != nil && !i.Status.IsValid() {
		return domain.NewValidationError("status", "unknown status")
	}
	return nil
}

func validateName(errs []domain.FieldError, name string) []domain.FieldError {
	if name == "" {
		return append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	if len(name) > 200 {
		return append(errs, domain.FieldError{Field: "name", Message: "max 200 characters"})
	}
	return errs
}

func validateEmail(errs []domain.FieldError, email string) []domain.FieldError {
	switch {
	case email == "":
		return append(errs, domain.FieldError{Field: "email", Message: "required"})
	case len(email) > 254:
		return append(errs, domain.FieldError{Field: "email", Message: "max 254 characters"})
	case !domain.ValidEmail(email):
		return append(errs, domain.FieldError{Field: "email", Message: "invalid email address"})
	}
	return errs
}

func validateContact(errs []domain.FieldError, phone, company *string) []domain.FieldError {
	if phone != nil && len(strings.TrimSpace(*phone)) > 50 {
		errs = append(errs, domain.FieldError{Field: "phone", Message: "max 50 characters"})
	}
	if company != nil && len(strings.TrimSpace(*company)) > 200 {
		errs = append(errs, domain.FieldError{Field: "company", Message: "max 200 characters"})
	}
	return errs
}
