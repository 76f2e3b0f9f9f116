// Package conversion turns a won lead into a client with its first
// engagement in a single transaction.
package conversion

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
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/ledger"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

type leadRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	Update(ctx context.Context, l *domain.Lead, expected time.Time) error
}

type clientRepo interface {
	FindByEmail(ctx context.Context, email string) (*domain.Client, error)
	Create(ctx context.Context, c *domain.Client) error
}

type engagementRepo interface {
	Create(ctx context.Context, e *domain.Engagement) error
}

type activityLog interface {
	Attach(ctx context.Context, e ledger.Entry) (*domain.Activity, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service converts leads.
type Service struct {
	leads       leadRepo
	clients     clientRepo
	engagements engagementRepo
	ledger      activityLog
	tx          txManager
	clock       clockwork.Clock
	log         *slog.Logger
}

// NewService creates a new conversion Service.
func NewService(
	log *slog.Logger,
	leads leadRepo,
	clients clientRepo,
	engagements engagementRepo,
	activityLedger activityLog,
	tx txManager,
	clock clockwork.Clock,
) *Service {
	return &Service{
		leads:       leads,
		clients:     clients,
		engagements: engagements,
		ledger:      activityLedger,
		tx:          tx,
		clock:       clock,
		log:         log.With("service", "conversion"),
	}
}

// Input selects the lead to convert. The engagement fields override the
// values copied from the lead.
type Input struct {
	LeadID          uuid.UUID
	Token           string
	EngagementTitle *string
	EngagementType  *string
	EngagementValue *int64
}

// Validate checks all fields and collects all errors.
func (i Input) Validate() error {
	errs := lifecycle.Command{ID: i.LeadID, Token: i.Token}.FieldErrors()
	if i.EngagementTitle != nil {
		title := strings.TrimSpace(*i.EngagementTitle)
		if title == "" {
			errs = append(errs, domain.FieldError{Field: "engagementTitle", Message: "must not be blank"})
		}
		if len(title) > 200 {
			errs = append(errs, domain.FieldError{Field: "engagementTitle", Message: "max 200 characters"})
		}
	}
	if i.EngagementType != nil && len(strings.TrimSpace(*i.EngagementType)) > 100 {
		errs = append(errs, domain.FieldError{Field: "engagementType", Message: "max 100 characters"})
	}
	if i.EngagementValue != nil && *i.EngagementValue < 0 {
		errs = append(errs, domain.FieldError{Field: "engagementValue", Message: "must not be negative"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// Result carries every record the conversion wrote and their Activities in
// the order lead_converted, client_created, engagement_created.
type Result struct {
	Lead       *domain.Lead
	Client     *domain.Client
	Engagement *domain.Engagement
	Activities []*domain.Activity
}

// Convert creates a client and an engagement from a won lead and marks the
// lead converted. Eligibility is checked before the concurrency token so a
// replayed request reports that the lead was already converted.
func (s *Service) Convert(ctx context.Context, in Input) (*Result, error) {
	operator, ok := ctxutil.OperatorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var res Result
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		lead, err := s.leads.GetByID(ctx, in.LeadID)
		if err != nil {
			return fmt.Errorf("get lead: %w", err)
		}
		if err := eligible(lead); err != nil {
			return err
		}
		if err := domain.CheckConcurrency(in.Token, domain.VersionToken(lead.UpdatedAt)); err != nil {
			return err
		}

		_, err = s.clients.FindByEmail(ctx, lead.Email)
		switch {
		case err == nil:
			return duplicateEmail()
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("find client by email: %w", err)
		}

		now := domain.NextVersion(lead.UpdatedAt, s.clock.Now())
		client := &domain.Client{
			ID:           uuid.New(),
			Name:         lead.Name,
			Email:        lead.Email,
			Phone:        lead.Phone,
			Company:      lead.Company,
			Status:       domain.ClientStatusActive,
			SourceLeadID: &lead.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.clients.Create(ctx, client); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return duplicateEmail()
			}
			return fmt.Errorf("create client: %w", err)
		}

		eng := newEngagement(lead, client, in, now)
		if err := s.engagements.Create(ctx, eng); err != nil {
			return fmt.Errorf("create engagement: %w", err)
		}

		converted := lead.Clone()
		converted.ConvertedToClientID = &client.ID
		converted.ConvertedAt = &now
		converted.UpdatedAt = now
		if err := s.leads.Update(ctx, converted, lead.UpdatedAt); err != nil {
			return fmt.Errorf("mark lead converted: %w", err)
		}

		acts, err := s.attach(ctx, converted, client, eng)
		if err != nil {
			return err
		}
		res = Result{Lead: converted, Client: client, Engagement: eng, Activities: acts}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "lead converted",
		slog.String("operator", operator),
		slog.String("lead_id", res.Lead.ID.String()),
		slog.String("client_id", res.Client.ID.String()),
		slog.String("engagement_id", res.Engagement.ID.String()),
	)
	return &res, nil
}

func (s *Service) attach(ctx context.Context, lead *domain.Lead, client *domain.Client, eng *domain.Engagement) ([]*domain.Activity, error) {
	entries := []ledger.Entry{
		{
			Kind:        domain.EntityKindLead,
			EntityID:    &lead.ID,
			Action:      domain.ActionLeadConverted,
			Description: fmt.Sprintf("Converted to client %s", client.Name),
			Metadata: map[string]any{
				"clientId":     client.ID.String(),
				"engagementId": eng.ID.String(),
			},
		},
		{
			Kind:        domain.EntityKindClient,
			EntityID:    &client.ID,
			Action:      domain.ActionClientCreated,
			Description: fmt.Sprintf("Client %s created from lead", client.Name),
			Metadata:    map[string]any{"channel": "conversion", "sourceLeadId": lead.ID.String()},
		},
		{
			Kind:        domain.EntityKindEngagement,
			EntityID:    &eng.ID,
			Action:      domain.ActionEngagementCreated,
			Description: fmt.Sprintf("Engagement %s created from lead", eng.Title),
			Metadata:    map[string]any{"clientId": client.ID.String(), "sourceLeadId": lead.ID.String()},
		},
	}

	acts := make([]*domain.Activity, 0, len(entries))
	for _, e := range entries {
		a, err := s.ledger.Attach(ctx, e)
		if err != nil {
			return nil, err
		}
		acts = append(acts, a)
	}
	return acts, nil
}

func eligible(l *domain.Lead) error {
	switch {
	case l.IsConverted():
		return &domain.RuleError{Code: domain.CodeConversionIneligible, Message: "lead has already been converted"}
	case l.Status != domain.LeadStatusWon:
		return &domain.RuleError{
			Code:    domain.CodeConversionIneligible,
			Message: fmt.Sprintf("only won leads can be converted; lead is %s", l.Status),
		}
	}
	return nil
}

func newEngagement(l *domain.Lead, c *domain.Client, in Input, now time.Time) *domain.Engagement {
	e := &domain.Engagement{
		ID:           uuid.New(),
		Title:        defaultTitle(l),
		Type:         l.ServiceType,
		Value:        l.EstimatedValue,
		ClientID:     c.ID,
		SourceLeadID: &l.ID,
		Status:       domain.EngagementStatusNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if msg := strings.TrimSpace(l.Message); msg != "" {
		e.Description = &msg
	}
	if in.EngagementTitle != nil {
		e.Title = strings.TrimSpace(*in.EngagementTitle)
	}
	if in.EngagementType != nil {
		if t := strings.TrimSpace(*in.EngagementType); t != "" {
			e.Type = &t
		}
	}
	if in.EngagementValue != nil {
		e.Value = in.EngagementValue
	}
	return e
}

func defaultTitle(l *domain.Lead) string {
	if l.ServiceType != nil && *l.ServiceType != "" {
		return *l.ServiceType + " - " + l.Name
	}
	return "Engagement - " + l.Name
}

func duplicateEmail() error {
	return &domain.RuleError{
		Code:    domain.CodeDuplicateEmail,
		Message: "a client with this email already exists",
		Field:   "email",
	}
}
