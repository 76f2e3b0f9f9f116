package lead

import (
	"context"
	"strings"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

// Update edits whitelisted lead fields and optionally appends a note. An
// edit that changes nothing writes nothing and returns the stored lead.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*Outcome, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return s.machine.Edit(ctx, lifecycle.Edit[*domain.Lead]{
		Command: lifecycle.Command{ID: in.ID, Token: in.Token},
		Note:    deref(in.Note),
		Diff: func(old *domain.Lead) (*domain.Lead, map[string]any) {
			next := old.Clone()
			return next, applyUpdate(next, in)
		},
		BeforeWrite: func(ctx context.Context, next *domain.Lead, changes map[string]any) error {
			// Archived leads do not hold their email; restore re-checks it.
			if _, ok := changes["email"]; ok && next.Status != domain.LeadStatusArchived {
				return s.ensureEmailFree(ctx, next.Email, next.ID)
			}
			return nil
		},
		WriteError: emailConflict,
	})
}

// applyUpdate copies the requested fields onto l and returns the fields that
// actually changed with their old and new values.
func applyUpdate(l *domain.Lead, in UpdateInput) map[string]any {
	changes := make(map[string]any)
	record := func(field string, before, after any) {
		changes[field] = map[string]any{"old": before, "new": after}
	}

	if in.Name != nil {
		if v := strings.TrimSpace(*in.Name); v != l.Name {
			record("name", l.Name, v)
			l.Name = v
		}
	}
	if in.Email != nil {
		if v := domain.NormalizeEmail(*in.Email); v != l.Email {
			record("email", l.Email, v)
			l.Email = v
		}
	}
	if in.Message != nil {
		if v := strings.TrimSpace(*in.Message); v != l.Message {
			record("message", l.Message, v)
			l.Message = v
		}
	}
	setOptional(record, "phone", &l.Phone, in.Phone)
	setOptional(record, "company", &l.Company, in.Company)
	setOptional(record, "serviceType", &l.ServiceType, in.ServiceType)
	if in.EstimatedValue != nil && (l.EstimatedValue == nil || *l.EstimatedValue != *in.EstimatedValue) {
		var old any
		if l.EstimatedValue != nil {
			old = *l.EstimatedValue
		}
		record("estimatedValue", old, *in.EstimatedValue)
		v := *in.EstimatedValue
		l.EstimatedValue = &v
	}
	if in.Source != nil && *in.Source != l.Source {
		record("source", string(l.Source), string(*in.Source))
		l.Source = *in.Source
	}
	return changes
}

// setOptional applies a nullable text edit. An empty value clears the field.
func setOptional(record func(string, any, any), field string, dst **string, in *string) {
	if in == nil {
		return
	}
	next := trimOrNil(in)
	if deref(next) == deref(*dst) && (next == nil) == (*dst == nil) {
		return
	}
	record(field, deref(*dst), deref(next))
	*dst = next
}
