// Package client implements client mutations for the admin panel.
package client

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

type clientRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Client, error)
	FindByEmail(ctx context.Context, email string) (*domain.Client, error)
	List(ctx context.Context, f domain.ClientFilter) ([]*domain.Client, int, error)
	Create(ctx context.Context, c *domain.Client) error
	Update(ctx context.Context, c *domain.Client, expected time.Time) error
	Delete(ctx context.Context, id uuid.UUID, expected time.Time) error
}

type engagementCounter interface {
	CountByClient(ctx context.Context, clientID uuid.UUID) (int, error)
}

type archiveHistory interface {
	LatestByAction(ctx context.Context, kind domain.EntityKind, id uuid.UUID, action domain.ActivityAction) (*domain.Activity, error)
}

type activityLog interface {
	Attach(ctx context.Context, e ledger.Entry) (*domain.Activity, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Outcome is a mutated client and the Activity the mutation produced.
type Outcome = lifecycle.Outcome[*domain.Client]

// Service provides client operations.
type Service struct {
	clients     clientRepo
	engagements engagementCounter
	ledger      activityLog
	tx          txManager
	clock       clockwork.Clock
	machine     *lifecycle.Machine[*domain.Client, domain.ClientStatus]
	bulk        *bulk.Coordinator[*domain.Client, domain.ClientStatus]
	log         *slog.Logger
}

// NewService creates a new Client service.
func NewService(
	log *slog.Logger,
	clients clientRepo,
	engagements engagementCounter,
	archives archiveHistory,
	activityLedger activityLog,
	tx txManager,
	clock clockwork.Clock,
	bulkMaxRecords int,
) *Service {
	s := &Service{
		clients:     clients,
		engagements: engagements,
		ledger:      activityLedger,
		tx:          tx,
		clock:       clock,
		log:         log.With("service", "client"),
	}
	s.machine = lifecycle.NewMachine(log, lifecycle.Repo[*domain.Client](clients), tx, activityLedger, archives, clock,
		lifecycle.Policy[*domain.Client, domain.ClientStatus]{
			Kind:         domain.EntityKindClient,
			Matrix:       domain.ClientTransitions,
			Archived:     domain.ClientStatusArchived,
			Baseline:     domain.ClientStatusActive,
			BeforeDelete: s.checkNoEngagements,
		})
	s.bulk = bulk.NewCoordinator(log, s.machine, tx, activityLedger, bulkMaxRecords)
	return s
}

func (s *Service) checkNoEngagements(ctx context.Context, c *domain.Client, _ string) error {
	n, err := s.engagements.CountByClient(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("count engagements: %w", err)
	}
	if n > 0 {
		return domain.NewRuleError(domain.CodeHasDependents,
			fmt.Sprintf("client has %d engagements; delete them first", n))
	}
	return nil
}

// ensureEmailFree fails with DUPLICATE_EMAIL when another client holds email.
func (s *Service) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.clients.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find client by email: %w", err)
	}
	if existing.ID != self {
		return duplicateEmail()
	}
	return nil
}

func duplicateEmail() error {
	return &domain.RuleError{
		Code:    domain.CodeDuplicateEmail,
		Message: "a client with this email already exists",
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
