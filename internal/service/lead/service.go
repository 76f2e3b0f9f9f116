// Package lead implements lead mutations: manual entry and editing, the
// pipeline lifecycle, bulk actions and the public intake form.
package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/bulk"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/ledger"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
)

type leadRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Lead, error)
	FindActiveByEmail(ctx context.Context, email string) (*domain.Lead, error)
	List(ctx context.Context, f domain.LeadFilter) ([]*domain.Lead, int, error)
	Create(ctx context.Context, l *domain.Lead) error
	Update(ctx context.Context, l *domain.Lead, expected time.Time) error
	Delete(ctx context.Context, id uuid.UUID, expected time.Time) error
}

type activityRepo interface {
	LatestByAction(ctx context.Context, kind domain.EntityKind, id uuid.UUID, action domain.ActivityAction) (*domain.Activity, error)
	ListByEntitySince(ctx context.Context, kind domain.EntityKind, id uuid.UUID, since time.Time, actions ...domain.ActivityAction) ([]*domain.Activity, error)
}

type activityLog interface {
	Attach(ctx context.Context, e ledger.Entry) (*domain.Activity, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Options tunes the lead service.
type Options struct {
	DuplicateWindow time.Duration
	BulkMaxRecords  int
}

// Outcome is a mutated lead and the Activity the mutation produced.
type Outcome = lifecycle.Outcome[*domain.Lead]

// Service provides lead operations.
type Service struct {
	leads      leadRepo
	activities activityRepo
	ledger     activityLog
	tx         txManager
	clock      clockwork.Clock
	machine    *lifecycle.Machine[*domain.Lead, domain.LeadStatus]
	bulk       *bulk.Coordinator[*domain.Lead, domain.LeadStatus]
	window     time.Duration
	log        *slog.Logger
}

// NewService creates a new Lead service.
func NewService(
	log *slog.Logger,
	leads leadRepo,
	activities activityRepo,
	activityLedger activityLog,
	tx txManager,
	clock clockwork.Clock,
	opts Options,
) *Service {
	s := &Service{
		leads:      leads,
		activities: activities,
		ledger:     activityLedger,
		tx:         tx,
		clock:      clock,
		window:     opts.DuplicateWindow,
		log:        log.With("service", "lead"),
	}
	s.machine = lifecycle.NewMachine(log, lifecycle.Repo[*domain.Lead](leads), tx, activityLedger, activities, clock,
		lifecycle.Policy[*domain.Lead, domain.LeadStatus]{
			Kind:          domain.EntityKindLead,
			Matrix:        domain.LeadTransitions,
			Archived:      domain.LeadStatusArchived,
			Baseline:      domain.LeadStatusNew,
			BeforeRestore: s.checkRestoreEmail,
		})
	s.bulk = bulk.NewCoordinator(log, s.machine, tx, activityLedger, opts.BulkMaxRecords)
	return s
}

// checkRestoreEmail keeps the active-email rule when an archived lead
// comes back into the pipeline.
func (s *Service) checkRestoreEmail(ctx context.Context, l *domain.Lead, _ string) error {
	return s.ensureEmailFree(ctx, l.Email, l.ID)
}

// ensureEmailFree fails with DUPLICATE_EMAIL when another non-archived lead
// holds email.
func (s *Service) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.leads.FindActiveByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find lead by email: %w", err)
	}
	if existing.ID != self {
		return duplicateEmail()
	}
	return nil
}

func duplicateEmail() error {
	return &domain.RuleError{
		Code:    domain.CodeDuplicateEmail,
		Message: "an active lead with this email already exists",
		Field:   "email",
	}
}

// emailConflict maps a unique-email violation from the store to
// DUPLICATE_EMAIL.
func emailConflict(err error) error {
	if errors.Is(err, domain.ErrAlreadyExists) {
		return duplicateEmail()
	}
	return nil
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
