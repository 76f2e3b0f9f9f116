// Package bulk applies one lifecycle action to a set of records as a single
// all-or-nothing unit.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/ledger"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

// Action is the lifecycle operation applied to every record of a batch.
type Action string

const (
	ActionArchive      Action = "archive"
	ActionStatusChange Action = "status_change"
)

func (a Action) IsValid() bool {
	return a == ActionArchive || a == ActionStatusChange
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type activityLog interface {
	Attach(ctx context.Context, e ledger.Entry) (*domain.Activity, error)
}

// Request selects the records of a batch and the tokens the caller read.
type Request[S ~string] struct {
	Action       Action
	IDs          []uuid.UUID
	Tokens       map[uuid.UUID]string
	TargetStatus S
}

// Result reports a committed batch.
type Result struct {
	Affected int
	Activity *domain.Activity
}

// Coordinator runs batches for one entity kind.
type Coordinator[T lifecycle.Record[S], S ~string] struct {
	machine    *lifecycle.Machine[T, S]
	tx         txManager
	ledger     activityLog
	maxRecords int
	log        *slog.Logger
}

// NewCoordinator creates a Coordinator accepting at most maxRecords ids per
// batch.
func NewCoordinator[T lifecycle.Record[S], S ~string](
	log *slog.Logger,
	machine *lifecycle.Machine[T, S],
	tx txManager,
	activities activityLog,
	maxRecords int,
) *Coordinator[T, S] {
	return &Coordinator[T, S]{
		machine:    machine,
		tx:         tx,
		ledger:     activities,
		maxRecords: maxRecords,
		log:        log.With("service", "bulk", "kind", string(machine.Kind())),
	}
}

// Apply validates every record of the batch before mutating any. When any
// record fails, a *domain.BatchError lists all failures and nothing is
// written.
func (c *Coordinator[T, S]) Apply(ctx context.Context, req Request[S]) (*Result, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	ids, err := c.validate(req)
	if err != nil {
		return nil, err
	}

	var result Result
	err = c.tx.RunInTx(ctx, func(ctx context.Context) error {
		recs, err := c.machine.Repo().GetByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("load batch: %w", err)
		}
		byID := make(map[uuid.UUID]T, len(recs))
		for _, rec := range recs {
			byID[rec.RecordID()] = rec
		}

		if failures := c.check(req, ids, byID); len(failures) > 0 {
			return &domain.BatchError{Records: failures}
		}

		for _, id := range ids {
			if err := c.apply(ctx, req, byID[id]); err != nil {
				if lostRace(err) {
					return &domain.BatchError{Records: []domain.RecordError{{
						ID: id, Code: domain.CodeConflictDetected, Message: "record changed while the batch was applied",
					}}}
				}
				return err
			}
		}

		meta := map[string]any{
			"action": string(req.Action),
			"count":  len(ids),
			"ids":    idStrings(ids),
		}
		if req.Action == ActionStatusChange {
			meta["targetStatus"] = string(req.TargetStatus)
		}
		summary, err := c.ledger.Attach(ctx, ledger.Entry{
			Kind:        c.machine.Kind(),
			Action:      domain.ActionBulkOperation,
			Description: fmt.Sprintf("Bulk %s on %d %s records", req.Action, len(ids), c.machine.Kind()),
			Metadata:    meta,
		})
		if err != nil {
			return err
		}
		result = Result{Affected: len(ids), Activity: summary}
		return nil
	})
	if err != nil {
		var be *domain.BatchError
		if errors.As(err, &be) {
			c.log.InfoContext(ctx, "bulk rejected",
				slog.String("action", string(req.Action)),
				slog.Int("failures", len(be.Records)),
			)
		}
		return nil, err
	}

	c.log.InfoContext(ctx, "bulk applied",
		slog.String("action", string(req.Action)),
		slog.Int("affected", result.Affected),
	)
	return &result, nil
}

// validate checks the request shape and returns the ids de-duplicated in
// request order.
func (c *Coordinator[T, S]) validate(req Request[S]) ([]uuid.UUID, error) {
	var errs []domain.FieldError
	if !req.Action.IsValid() {
		errs = append(errs, domain.FieldError{Field: "action", Message: "must be archive or status_change"})
	}
	if req.Action == ActionStatusChange && !c.machine.ValidTarget(req.TargetStatus) {
		errs = append(errs, domain.FieldError{Field: "targetStatus", Message: "unknown status"})
	}

	seen := make(map[uuid.UUID]struct{}, len(req.IDs))
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, id := range req.IDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	switch {
	case len(ids) == 0:
		errs = append(errs, domain.FieldError{Field: "ids", Message: "at least one id is required"})
	case len(ids) > c.maxRecords:
		errs = append(errs, domain.FieldError{Field: "ids", Message: fmt.Sprintf("at most %d ids per batch", c.maxRecords)})
	}

	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	return ids, nil
}

func (c *Coordinator[T, S]) check(req Request[S], ids []uuid.UUID, byID map[uuid.UUID]T) []domain.RecordError {
	var failures []domain.RecordError
	fail := func(id uuid.UUID, code, msg string) {
		failures = append(failures, domain.RecordError{ID: id, Code: code, Message: msg})
	}

	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			fail(id, domain.CodeNotFound, "record not found")
			continue
		}
		supplied, ok := req.Tokens[id]
		if !ok || supplied == "" {
			fail(id, domain.CodeTokenMissing, "concurrency token missing")
			continue
		}
		if domain.CheckConcurrency(supplied, domain.VersionToken(rec.LastModified())) != nil {
			fail(id, domain.CodeConflictDetected, "record was modified by someone else; reload and retry")
			continue
		}

		var err error
		if req.Action == ActionArchive {
			err = c.machine.CheckArchive(rec)
		} else {
			err = c.machine.CheckTransition(rec, req.TargetStatus)
		}
		var re *domain.RuleError
		if errors.As(err, &re) {
			fail(id, re.Code, re.Message)
		}
	}
	return failures
}

func (c *Coordinator[T, S]) apply(ctx context.Context, req Request[S], rec T) error {
	var err error
	if req.Action == ActionArchive {
		_, err = c.machine.ApplyArchive(ctx, rec)
	} else {
		_, err = c.machine.ApplyTransition(ctx, rec, req.TargetStatus)
	}
	return err
}

// lostRace reports whether a write failed because another writer changed or
// removed the record after the batch was checked.
func lostRace(err error) bool {
	return errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound)
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
