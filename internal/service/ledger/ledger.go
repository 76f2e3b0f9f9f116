// Package ledger records the append-only Activity history that accompanies
// every successful CRM mutation.
package ledger

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
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

// ErrNoTransaction is returned by Attach when called outside a unit of work.
var ErrNoTransaction = errors.New("ledger: attach requires an open transaction")

type activityRepo interface {
	Create(ctx context.Context, a *domain.Activity) error
	ListByEntity(ctx context.Context, kind domain.EntityKind, id uuid.UUID, limit int) ([]*domain.Activity, error)
	ListRecent(ctx context.Context, f domain.ActivityFilter) ([]*domain.Activity, error)
}

type txChecker interface {
	InTx(ctx context.Context) bool
}

// Entry is the caller-supplied part of an Activity.
type Entry struct {
	Kind        domain.EntityKind
	EntityID    *uuid.UUID
	Action      domain.ActivityAction
	Description string
	Metadata    map[string]any
}

// Ledger writes and reads Activities.
type Ledger struct {
	repo         activityRepo
	tx           txChecker
	clock        clockwork.Clock
	historyLimit int
	feedLimit    int
	log          *slog.Logger
}

// New creates a Ledger. historyLimit and feedLimit cap the reads.
func New(log *slog.Logger, repo activityRepo, tx txChecker, clock clockwork.Clock, historyLimit, feedLimit int) *Ledger {
	return &Ledger{
		repo:         repo,
		tx:           tx,
		clock:        clock,
		historyLimit: historyLimit,
		feedLimit:    feedLimit,
		log:          log.With("service", "ledger"),
	}
}

// Attach stamps e with an id, the current time and the operator from ctx and
// writes it inside the caller's transaction. It never commits.
func (l *Ledger) Attach(ctx context.Context, e Entry) (*domain.Activity, error) {
	if !l.tx.InTx(ctx) {
		return nil, ErrNoTransaction
	}
	operator, ok := ctxutil.OperatorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if !e.Kind.IsValid() || !e.Action.IsValid() {
		return nil, fmt.Errorf("ledger: invalid entry %s/%s", e.Kind, e.Action)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("activity id: %w", err)
	}

	a := &domain.Activity{
		ID:          id,
		EntityKind:  e.Kind,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: strings.TrimSpace(e.Description),
		PerformedBy: operator,
		Metadata:    e.Metadata,
		CreatedAt:   l.clock.Now().UTC().Truncate(time.Microsecond),
	}
	if err := l.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	l.log.DebugContext(ctx, "activity attached",
		slog.String("action", string(a.Action)),
		slog.String("kind", string(a.EntityKind)),
	)
	return a, nil
}

// HistoryInput selects the history of one record.
type HistoryInput struct {
	Kind     domain.EntityKind
	EntityID uuid.UUID
	Limit    int
}

// Validate checks all fields and collects all errors.
func (i HistoryInput) Validate() error {
	var errs []domain.FieldError
	if !i.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: "unknown entity kind"})
	}
	if i.EntityID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.Limit < 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must not be negative"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// History returns the Activities of one record, newest first.
func (l *Ledger) History(ctx context.Context, in HistoryInput) ([]*domain.Activity, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return l.repo.ListByEntity(ctx, in.Kind, in.EntityID, clampLimit(in.Limit, l.historyLimit))
}

// RecentInput narrows the cross-record feed.
type RecentInput struct {
	Kind   *domain.EntityKind
	Action *domain.ActivityAction
	Limit  int
}

// Validate checks all fields and collects all errors.
func (i RecentInput) Validate() error {
	var errs []domain.FieldError
	if i.Kind != nil && !i.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: "unknown entity kind"})
	}
	if i.Action != nil && !i.Action.IsValid() {
		errs = append(errs, domain.FieldError{Field: "action", Message: "unknown action"})
	}
	if i.Limit < 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must not be negative"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// Recent lists the latest Activities across the CRM.
func (l *Ledger) Recent(ctx context.Context, in RecentInput) ([]*domain.Activity, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return l.repo.ListRecent(ctx, domain.ActivityFilter{
		Kind:   in.Kind,
		Action: in.Action,
		Limit:  clampLimit(in.Limit, l.feedLimit),
	})
}

// clampLimit returns ceiling when requested is zero or above it.
func clampLimit(requested, ceiling int) int {
	if requested == 0 || requested > ceiling {
		return ceiling
	}
	return requested
}
