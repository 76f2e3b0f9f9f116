// Package engagement implements engagement mutations. Engagements have no
// archived state; they are deletable once completed or cancelled.
package engagement

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
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

type engagementRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Engagement, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Engagement, error)
	List(ctx context.Context, f domain.EngagementFilter) ([]*domain.Engagement, int, error)
	Create(ctx context.Context, e *domain.Engagement) error
	Update(ctx context.Context, e *domain.Engagement, expected time.Time) error
	Delete(ctx context.Context, id uuid.UUID, expected time.Time) error
}

type clientReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
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

// Outcome is a mutated engagement and the Activity the mutation produced.
type Outcome = lifecycle.Outcome[*domain.Engagement]

// Service provides engagement operations.
type Service struct {
	engagements engagementRepo
	clients     clientReader
	ledger      activityLog
	tx          txManager
	clock       clockwork.Clock
	machine     *lifecycle.Machine[*domain.Engagement, domain.EngagementStatus]
	bulk        *bulk.Coordinator[*domain.Engagement, domain.EngagementStatus]
	log         *slog.Logger
}

// NewService creates a new Engagement service.
func NewService(
	log *slog.Logger,
	engagements engagementRepo,
	clients clientReader,
	archives archiveHistory,
	activityLedger activityLog,
	tx txManager,
	clock clockwork.Clock,
	bulkMaxRecords int,
) *Service {
	m := lifecycle.NewMachine(log, lifecycle.Repo[*domain.Engagement](engagements), tx, activityLedger, archives, clock,
		lifecycle.Policy[*domain.Engagement, domain.EngagementStatus]{
			Kind:   domain.EntityKindEngagement,
			Matrix: domain.EngagementTransitions,
		})
	return &Service{
		engagements: engagements,
		clients:     clients,
		ledger:      activityLedger,
		tx:          tx,
		clock:       clock,
		machine:     m,
		bulk:        bulk.NewCoordinator(log, m, tx, activityLedger, bulkMaxRecords),
		log:         log.With("service", "engagement"),
	}
}

// CreateInput holds the parameters for a new engagement.
type CreateInput struct {
	ClientID    uuid.UUID
	Title       string
	Type        *string
	Description *string
	Value       *int64
	Note        string
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate() error {
	var errs []domain.FieldError
	if i.ClientID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "clientId", Message: "required"})
	}
	errs = validateTitle(errs, strings.TrimSpace(i.Title))
	errs = validateDetails(errs, i.Type, i.Description, i.Value)
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateInput holds a partial engagement edit.
type UpdateInput struct {
	ID          uuid.UUID
	Token       string
	Title       *string
	Type        *string
	Description *string
	Value       *int64
	Note        *string
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate() error {
	errs := lifecycle.Command{ID: i.ID, Token: i.Token}.FieldErrors()
	if i.Title != nil {
		errs = validateTitle(errs, strings.TrimSpace(*i.Title))
	}
	errs = validateDetails(errs, i.Type, i.Description, i.Value)
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ListInput selects a page of engagements.
type ListInput struct {
	Status   *domain.EngagementStatus
	ClientID *uuid.UUID
	Search   string
	Page     domain.Page
}

func validateTitle(errs []domain.FieldError, title string) []domain.FieldError {
	if title == "" {
		return append(errs, domain.FieldError{Field: "title", Message: "required"})
	}
	if len(title) > 200 {
		return append(errs, domain.FieldError{Field: "title", Message: "max 200 characters"})
	}
	return errs
}

func validateDetails(errs []domain.FieldError, typ, desc *string, value *int64) []domain.FieldError {
	if typ != nil && len(strings.TrimSpace(*typ)) > 100 {
		errs = append(errs, domain.FieldError{Field: "type", Message: "max 100 characters"})
	}
	if desc != nil && len(strings.TrimSpace(*desc)) > 5000 {
		errs = append(errs, domain.FieldError{Field: "description", Message: "max 5000 characters"})
	}
	if value != nil && *value < 0 {
		errs = append(errs, domain.FieldError{Field: "value", Message: "must not be negative"})
	}
	return errs
}

// Create opens an engagement for an existing client.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Outcome, error) {
	operator, ok := ctxutil.OperatorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC().Truncate(time.Microsecond)
	e := &domain.Engagement{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Type:        trimOrNil(in.Type),
		Description: trimOrNil(in.Description),
		Value:       in.Value,
		ClientID:    in.ClientID,
		Status:      domain.EngagementStatusNew,
		Notes:       domain.AppendNote("", in.Note, operator, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var out Outcome
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.clients.GetByID(ctx, in.ClientID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return relationNotFound()
			}
			return fmt.Errorf("get client: %w", err)
		}
		if err := s.engagements.Create(ctx, e); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return relationNotFound()
			}
			return fmt.Errorf("create engagement: %w", err)
		}
		act, err := s.ledger.Attach(ctx, ledger.Entry{
			Kind:        domain.EntityKindEngagement,
			EntityID:    &e.ID,
			Action:      domain.ActionEngagementCreated,
			Description: fmt.Sprintf("Engagement %s created", e.Title),
			Metadata:    map[string]any{"clientId": e.ClientID.String()},
		})
		if err != nil {
			return err
		}
		out = Outcome{Record: e, Activity: act}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "engagement created",
		slog.String("operator", operator),
		slog.String("engagement_id", e.ID.String()),
		slog.String("client_id", e.ClientID.String()),
	)
	return &out, nil
}

// Update edits whitelisted engagement fields and optionally appends a note.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*Outcome, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return s.machine.Edit(ctx, lifecycle.Edit[*domain.Engagement]{
		Command: lifecycle.Command{ID: in.ID, Token: in.Token},
		Note:    deref(in.Note),
		Diff: func(old *domain.Engagement) (*domain.Engagement, map[string]any) {
			next := old.Clone()
			return next, applyUpdate(next, in)
		},
	})
}

func applyUpdate(e *domain.Engagement, in UpdateInput) map[string]any {
	changes := make(map[string]any)
	record := func(field string, before, after any) {
		changes[field] = map[string]any{"old": before, "new": after}
	}

	if in.Title != nil {
		if v := strings.TrimSpace(*in.Title); v != e.Title {
			record("title", e.Title, v)
			e.Title = v
		}
	}
	for _, f := range []struct {
		name string
		dst  **string
		in   *string
	}{
		{"type", &e.Type, in.Type},
		{"description", &e.Description, in.Description},
	} {
		if f.in == nil {
			continue
		}
		next := trimOrNil(f.in)
		if deref(next) == deref(*f.dst) {
			continue
		}
		record(f.name, deref(*f.dst), deref(next))
		*f.dst = next
	}
	if in.Value != nil && (e.Value == nil || *e.Value != *in.Value) {
		var before any
		if e.Value != nil {
			before = *e.Value
		}
		record("value", before, *in.Value)
		v := *in.Value
		e.Value = &v
	}
	return changes
}

// Get returns one engagement.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Engagement, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	e, err := s.engagements.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get engagement: %w", err)
	}
	return e, nil
}

// List returns a page of engagements, newest first, and the total match count.
func (s *Service) List(ctx context.Context, in ListInput) ([]*domain.Engagement, int, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, 0, domain.ErrUnauthorized
	}
	if in.Status != nil && !in.Status.IsValid() {
		return nil, 0, domain.NewValidationError("status", "unknown status")
	}
	items, total, err := s.engagements.List(ctx, domain.EngagementFilter{
		Status:   in.Status,
		ClientID: in.ClientID,
		Search:   strings.TrimSpace(in.Search),
		Page:     in.Page.Normalize(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list engagements: %w", err)
	}
	return items, total, nil
}

// ChangeStatus moves an engagement along the delivery lifecycle.
func (s *Service) ChangeStatus(ctx context.Context, cmd lifecycle.Command, target domain.EngagementStatus) (*Outcome, error) {
	return s.machine.Transition(ctx, cmd, target)
}

// Delete permanently removes a completed or cancelled engagement.
func (s *Service) Delete(ctx context.Context, cmd lifecycle.Command) (*domain.Activity, error) {
	return s.machine.Delete(ctx, cmd)
}

// Bulk moves engagements to one status as a single unit. Engagements cannot
// be archived, so only status_change is accepted.
func (s *Service) Bulk(ctx context.Context, req bulk.Request[domain.EngagementStatus]) (*bulk.Result, error) {
	if req.Action != bulk.ActionStatusChange {
		return nil, domain.NewValidationError("action", "engagements support status_change only")
	}
	return s.bulk.Apply(ctx, req)
}

func relationNotFound() error {
	return &domain.RuleError{
		Code:    domain.CodeRelationNotFound,
		Message: "client does not exist",
		Field:   "clientId",
	}
}

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
