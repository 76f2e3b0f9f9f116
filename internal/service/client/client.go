package client

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
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

// Create records a client entered by an operator.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Outcome, error) {
	operator, ok := ctxutil.OperatorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC().Truncate(time.Microsecond)
	c := &domain.Client{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		Email:     domain.NormalizeEmail(in.Email),
		Phone:     trimOrNil(in.Phone),
		Company:   trimOrNil(in.Company),
		Status:    domain.ClientStatusActive,
		Notes:     domain.AppendNote("", in.Note, operator, now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var out Outcome
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.ensureEmailFree(ctx, c.Email, c.ID); err != nil {
			return err
		}
		if err := s.clients.Create(ctx, c); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return duplicateEmail()
			}
			return fmt.Errorf("create client: %w", err)
		}
		act, err := s.ledger.Attach(ctx, ledger.Entry{
			Kind:        domain.EntityKindClient,
			EntityID:    &c.ID,
			Action:      domain.ActionClientCreated,
			Description: fmt.Sprintf("Client %s created", c.Name),
			Metadata:    map[string]any{"channel": "manual"},
		})
		if err != nil {
			return err
		}
		out = Outcome{Record: c, Activity: act}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "client created",
		slog.String("operator", operator),
		slog.String("client_id", c.ID.String()),
	)
	return &out, nil
}

// Update edits whitelisted client fields and optionally appends a note.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*Outcome, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return s.machine.Edit(ctx, lifecycle.Edit[*domain.Client]{
		Command: lifecycle.Command{ID: in.ID, Token: in.Token},
		Note:    deref(in.Note),
		Diff: func(old *domain.Client) (*domain.Client, map[string]any) {
			next := old.Clone()
			return next, applyUpdate(next, in)
		},
		BeforeWrite: func(ctx context.Context, next *domain.Client, changes map[string]any) error {
			if _, ok := changes["email"]; ok {
				return s.ensureEmailFree(ctx, next.Email, next.ID)
			}
			return nil
		},
		WriteError: emailConflict,
	})
}

func applyUpdate(c *domain.Client, in UpdateInput) map[string]any {
	changes := make(map[string]any)
	record := func(field string, before, after any) {
		changes[field] = map[string]any{"old": before, "new": after}
	}

	if in.Name != nil {
		if v := strings.TrimSpace(*in.Name); v != c.Name {
			record("name", c.Name, v)
			c.Name = v
		}
	}
	if in.Email != nil {
		if v := domain.NormalizeEmail(*in.Email); v != c.Email {
			record("email", c.Email, v)
			c.Email = v
		}
	}
	for _, f := range []struct {
		name string
		dst  **string
		in   *string
	}{
		{"phone", &c.Phone, in.Phone},
		{"company", &c.Company, in.Company},
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
	return changes
}

// Get returns one client.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// List returns a page of clients, newest first, and the total match count.
func (s *Service) List(ctx context.Context, in ListInput) ([]*domain.Client, int, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, 0, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, 0, err
	}
	items, total, err := s.clients.List(ctx, domain.ClientFilter{
		Status: in.Status,
		Search: strings.TrimSpace(in.Search),
		Page:   in.Page.Normalize(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	return items, total, nil
}
