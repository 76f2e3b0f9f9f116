package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/ledger"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

// Create records a lead entered by an operator.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Outcome, error) {
	operator, ok := ctxutil.OperatorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC().Truncate(time.Microsecond)
	source := in.Source
	if source == "" {
		source = domain.LeadSourceManual
	}
	l := &domain.Lead{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(in.Name),
		Email:          domain.NormalizeEmail(in.Email),
		Phone:          trimOrNil(in.Phone),
		Company:        trimOrNil(in.Company),
		Message:        strings.TrimSpace(in.Message),
		ServiceType:    trimOrNil(in.ServiceType),
		EstimatedValue: in.EstimatedValue,
		Source:         source,
		Status:         domain.LeadStatusNew,
		Notes:          domain.AppendNote("", in.Note, operator, now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var out Outcome
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.ensureEmailFree(ctx, l.Email, l.ID); err != nil {
			return err
		}
		if err := s.leads.Create(ctx, l); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return duplicateEmail()
			}
			return fmt.Errorf("create lead: %w", err)
		}
		act, err := s.ledger.Attach(ctx, ledger.Entry{
			Kind:        domain.EntityKindLead,
			EntityID:    &l.ID,
			Action:      domain.ActionLeadCreated,
			Description: fmt.Sprintf("Lead %s created", l.Name),
			Metadata:    map[string]any{"channel": "manual", "source": string(l.Source)},
		})
		if err != nil {
			return err
		}
		out = Outcome{Record: l, Activity: act}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "lead created",
		slog.String("operator", operator),
		slog.String("lead_id", l.ID.String()),
	)
	return &out, nil
}
