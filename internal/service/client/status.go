package client

import (
	"context"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/bulk"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
)

func (s *Service) ChangeStatus(ctx context.Context, cmd lifecycle.Command, target domain.ClientStatus) (*Outcome, error) {
	return s.machine.Transition(ctx, cmd, target)
}

func (s *Service) Archive(ctx context.Context, cmd lifecycle.Command) (*Outcome, error) {
	return s.machine.Archive(ctx, cmd)
}

func (s *Service) Restore(ctx context.Context, cmd lifecycle.Command) (*Outcome, error) {
	return s.machine.Restore(ctx, cmd)
}

// Delete permanently removes an archived client that has no engagements.
func (s *Service) Delete(ctx context.Context, cmd lifecycle.Command) (*domain.Activity, error) {
	return s.machine.Delete(ctx, cmd)
}

func (s *Service) Bulk(ctx context.Context, req bulk.Request[domain.ClientStatus]) (*bulk.Result, error) {
	return s.bulk.Apply(ctx, req)
}
