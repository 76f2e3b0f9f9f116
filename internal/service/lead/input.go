package lead

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
)

const (
	maxNameLen    = 200
	maxEmailLen   = 254
	maxPhoneLen   = 50
	maxCompanyLen = 200
	maxServiceLen = 100
	maxMessageLen = 5000
	maxNoteLen    = 5000
)

// CreateInput holds the parameters for a manually entered lead.
type CreateInput struct {
	Name           string
	Email          string
	Phone          *string
	Company        *string
	Message        string
	ServiceType    *string
	EstimatedValue *int64
	Source         domain.LeadSource
	Note           string
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate() error {
	var errs []domain.FieldError
	errs = validateName(errs, strings.TrimSpace(i.Name))
	errs = validateEmail(errs, domain.NormalizeEmail(i.Email))
	errs = validateOptional(errs, i.Phone, i.Company, i.ServiceType)
	if len(strings.TrimSpace(i.Message)) > maxMessageLen {
		errs = append(errs, domain.FieldError{Field: "message", Message: "max 5000 characters"})
	}
	if i.EstimatedValue != nil && *i.EstimatedValue < 0 {
		errs = append(errs, domain.FieldError{Field: "estimatedValue", Message: "must not be negative"})
	}
	if i.Source != "" && !i.Source.IsValid() {
		errs = append(errs, domain.FieldError{Field: "source", Message: "unknown source"})
	}
	if len(i.Note) > maxNoteLen {
		errs = append(errs, domain.FieldError{Field: "note", Message: "max 5000 characters"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateInput holds a partial lead edit. Nil fields are left unchanged; an
// empty string clears an optional field.
type UpdateInput struct {
	ID             uuid.UUID
	Token          string
	Name           *string
	Email          *string
	Phone          *string
	Company        *string
	Message        *string
	ServiceType    *string
	EstimatedValue *int64
	Source         *domain.LeadSource
	Note           *string
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
	errs = validateOptional(errs, i.Phone, i.Company, i.ServiceType)
	if i.Message != nil && len(strings.TrimSpace(*i.Message)) > maxMessageLen {
		errs = append(errs, domain.FieldError{Field: "message", Message: "max 5000 characters"})
	}
	if i.EstimatedValue != nil && *i.EstimatedValue < 0 {
		errs = append(errs, domain.FieldError{Field: "estimatedValue", Message: "must not be negative"})
	}
	if i.Source != nil && !i.Source.IsValid() {
		errs = append(errs, domain.FieldError{Field: "source", Message: "unknown source"})
	}
	if i.Note != nil && len(*i.Note) > maxNoteLen {
		errs = append(errs, domain.FieldError{Field: "note", Message: "max 5000 characters"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// SubmitInput is a public contact-form submission.
type SubmitInput struct {
	Name        string
	Email       string
	Phone       *string
	Company     *string
	Message     string
	ServiceType *string
}

// Validate checks all fields and collects all errors.
func (i SubmitInput) Validate() error {
	var errs []domain.FieldError
	errs = validateName(errs, strings.TrimSpace(i.Name))
	errs = validateEmail(errs, domain.NormalizeEmail(i.Email))
	errs = validateOptional(errs, i.Phone, i.Company, i.ServiceType)

	msg := strings.TrimSpace(i.Message)
	if msg == "" {
		errs = append(errs, domain.FieldError{Field: "message", Message: "required"})
	}
	if len(msg) > maxMessageLen {
		errs = append(errs, domain.FieldError{Field: "message", Message: "max 5000 characters"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ListInput selects a page of leads.
type ListInput struct {
	Status *domain.LeadStatus
	Source *domain.LeadSource
	Search string
	Page   domain.Page
}

// Validate checks all fields and collects all errors.
func (i ListInput) Validate() error {
	var errs []domain.FieldError
	if i.Status != nil && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "unknown status"})
	}
	if i.Source != nil && !i.Source.IsValid() {
		errs = append(errs, domain.FieldError{Field: "source", Message: "unknown source"})
	}
	if len(i.Search) > maxNameLen {
		errs = append(errs, domain.FieldError{Field: "search", Message: "max 200 characters"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateName(errs []domain.FieldError, name string) []domain.FieldError {
	if name == "" {
		return append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	if len(name) > maxNameLen {
		return append(errs, domain.FieldError{Field: "name", Message: "max 200 characters"})
	}
	return errs
}

func validateEmail(errs []domain.FieldError, email string) []domain.FieldError {
	switch {
	case email == "":
		return append(errs, domain.FieldError{Field: "email", Message: "required"})
	case len(email) > maxEmailLen:
		return append(errs, domain.FieldError{Field: "email", Message: "max 254 characters"})
	case !domain.ValidEmail(email):
		return append(errs, domain.FieldError{Field: "email", Message: "invalid email address"})
	}
	return errs
}

func validateOptional(errs []domain.FieldError, phone, company, service *string) []domain.FieldError {
	if phone != nil && len(strings.TrimSpace(*phone)) > maxPhoneLen {
		errs = append(errs, domain.FieldError{Field: "phone", Message: "max 50 characters"})
	}
	if company != nil && len(strings.TrimSpace(*company)) > maxCompanyLen {
		errs = append(errs, domain.FieldError{Field: "company", Message: "max 200 characters"})
	}
	if service != nil && len(strings.TrimSpace(*service)) > maxServiceLen {
		errs = append(errs, domain.FieldError{Field: "serviceType", Message: "max 100 characters"})
	}
	return errs
}
