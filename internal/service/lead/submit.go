package lead

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
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

// Intake outcomes reported by Submit.
const (
	IntakeCreated    = "created"
	IntakeAppended   = "appended"
	IntakeSuppressed = "suppressed"
)

// SubmitResult is the acknowledgement of a public submission. Received is
// true for every accepted submission, including suppressed replays.
type SubmitResult struct {
	Received bool
	Outcome  string
}

// Submit accepts a public contact-form submission. A first contact creates a
// lead. A repeat from an address with an active lead is appended to that
// lead's notes, unless the same message arrived within the duplicate window,
// in which case nothing is written.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ctx = ctxutil.WithOperator(ctx, ctxutil.PublicIntakeOperator)
	hash := messageHash(in.Message)

	outcome, err := s.submitOnce(ctx, in, hash)
	if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrAlreadyExists) {
		// Two submissions for the same address raced; the second attempt
		// sees the winner's write.
		outcome, err = s.submitOnce(ctx, in, hash)
	}
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "public submission",
		slog.String("outcome", outcome),
		slog.String("message_hash", hash[:12]),
	)
	return &SubmitResult{Received: true, Outcome: outcome}, nil
}

func (s *Service) submitOnce(ctx context.Context, in SubmitInput, hash string) (string, error) {
	email := domain.NormalizeEmail(in.Email)
	var outcome string

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.leads.FindActiveByEmail(ctx, email)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			outcome = IntakeCreated
			return s.createFromIntake(ctx, in, email, hash)
		case err != nil:
			return fmt.Errorf("find lead by email: %w", err)
		}

		now := s.clock.Now()
		recent, err := s.activities.ListByEntitySince(ctx, domain.EntityKindLead, existing.ID, now.Add(-s.window),
			domain.ActionLeadCreated, domain.ActionDuplicateSubmission)
		if err != nil {
			return fmt.Errorf("recent submissions: %w", err)
		}
		for _, a := range recent {
			if h, _ := a.MetadataString("messageHash"); h == hash {
				outcome = IntakeSuppressed
				return nil
			}
		}

		outcome = IntakeAppended
		next := existing.Clone()
		next.UpdatedAt = domain.NextVersion(existing.UpdatedAt, now)
		next.Notes = domain.AppendNote(next.Notes, strings.TrimSpace(in.Message), ctxutil.PublicIntakeOperator, next.UpdatedAt)
		if err := s.leads.Update(ctx, next, existing.UpdatedAt); err != nil {
			return fmt.Errorf("append submission: %w", err)
		}
		_, err = s.ledger.Attach(ctx, ledger.Entry{
			Kind:        domain.EntityKindLead,
			EntityID:    &next.ID,
			Action:      domain.ActionDuplicateSubmission,
			Description: "Repeat submission from the contact form",
			Metadata:    map[string]any{"channel": "public", "messageHash": hash},
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func (s *Service) createFromIntake(ctx context.Context, in SubmitInput, email, hash string) error {
	now := s.clock.Now().UTC().Truncate(time.Microsecond)
	l := &domain.Lead{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		Phone:       trimOrNil(in.Phone),
		Company:     trimOrNil(in.Company),
		Message:     strings.TrimSpace(in.Message),
		ServiceType: trimOrNil(in.ServiceType),
		Source:      domain.LeadSourceWebsite,
		Status:      domain.LeadStatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.leads.Create(ctx, l); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	_, err := s.ledger.Attach(ctx, ledger.Entry{
		Kind:        domain.EntityKindLead,
		EntityID:    &l.ID,
		Action:      domain.ActionLeadCreated,
		Description: fmt.Sprintf("Lead %s submitted the contact form", l.Name),
		Metadata:    map[string]any{"channel": "public", "messageHash": hash},
	})
	return err
}

// messageHash fingerprints a submission body for replay detection.
func messageHash(message string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(message)))
	return hex.EncodeToString(sum[:])
}
