package lead

import (
	"context"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/bulk"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
)

// ChangeStatus moves a lead along the pipeline.
func (s *Service) ChangeStatus(ctx context.Context, cmd lifecycle.Command, target domain.LeadStatus) (*Outcome, error) {
	return s.machine.Transition(ctx, cmd, target)
}

// Archive removes a lead from the active pipeline.
func (s *Service) Archive(ctx context.Context, cmd lifecycle.Command) (*Outcome, error) {
	return s.machine.Archive(ctx, cmd)
}

// Restore returns an archived lead to the status it had before archiving.
func (s *Service) Restore(ctx context.Context, cmd lifecycle.Command) (*Outcome, error) {
	return s.machine.Restore(ctx, cmd)
}

// Delete permanently removes an archived lead.
func (s *Service) Delete(ctx context.Context, cmd lifecycle.Command) (*domain.Activity, error) {
	return s.machine.Delete(ctx, cmd)
}

// Bulk archives leads or moves them to one status as a single unit.
func (s *Service) Bulk(ctx context.Context, req bulk.Request[domain.LeadStatus]) (*bulk.Result, error) {
	return s.bulk.Apply(ctx, req)
}
