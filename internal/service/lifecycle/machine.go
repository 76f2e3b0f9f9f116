// Package lifecycle holds the status machinery shared by every CRM entity:
// guarded transitions, archive and restore, and deletion of deactivated
// records. Each operation runs in one transaction and writes exactly one
// Activity.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/ledger"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

// Record is the view of an entity the machine needs.
type Record[S ~string] interface {
	RecordID() uuid.UUID
	LastModified() time.Time
	CurrentStatus() S
	SetStatus(s S, at time.Time)
	// Edited appends note (when not empty) under operator and sets the
	// last-modified time.
	Edited(note, operator string, at time.Time)
	Deletable() bool
	Snapshot() map[string]any
}

// Repo loads and writes one entity kind. Update and Delete are
// compare-and-swap on the last-modified timestamp.
type Repo[T any] interface {
	GetByID(ctx context.Context, id uuid.UUID) (T, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]T, error)
	Update(ctx context.Context, rec T, expected time.Time) error
	Delete(ctx context.Context, id uuid.UUID, expected time.Time) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type activityLog interface {
	Attach(ctx context.Context, e ledger.Entry) (*domain.Activity, error)
}

type archiveHistory interface {
	LatestByAction(ctx context.Context, kind domain.EntityKind, id uuid.UUID, action domain.ActivityAction) (*domain.Activity, error)
}

// Hook runs inside the operation's transaction before the write.
type Hook[T any] func(ctx context.Context, rec T, target string) error

// Policy configures the machine for one entity kind.
type Policy[T any, S ~string] struct {
	Kind   domain.EntityKind
	Matrix domain.Matrix[S]
	// Archived is the status Archive moves to. The zero value means the
	// kind cannot be archived.
	Archived S
	// Baseline is the restore target when no usable previous status is
	// recorded.
	Baseline      S
	BeforeRestore Hook[T]
	BeforeDelete  Hook[T]
}

// Outcome is a mutated record together with the Activity it produced.
type Outcome[T any] struct {
	Record   T
	Activity *domain.Activity
}

// Machine runs lifecycle operations for one entity kind.
type Machine[T Record[S], S ~string] struct {
	repo     Repo[T]
	tx       txManager
	ledger   activityLog
	archives archiveHistory
	clock    clockwork.Clock
	policy   Policy[T, S]
	log      *slog.Logger
}

// NewMachine creates a Machine.
func NewMachine[T Record[S], S ~string](
	log *slog.Logger,
	repo Repo[T],
	tx txManager,
	activities activityLog,
	archives archiveHistory,
	clock clockwork.Clock,
	policy Policy[T, S],
) *Machine[T, S] {
	return &Machine[T, S]{
		repo:     repo,
		tx:       tx,
		ledger:   activities,
		archives: archives,
		clock:    clock,
		policy:   policy,
		log:      log.With("service", "lifecycle", "kind", string(policy.Kind)),
	}
}

// Kind returns the entity kind the machine governs.
func (m *Machine[T, S]) Kind() domain.EntityKind { return m.policy.Kind }

// Repo returns the repository the machine writes through.
func (m *Machine[T, S]) Repo() Repo[T] { return m.repo }

// ValidTarget reports whether s is a status of this kind.
func (m *Machine[T, S]) ValidTarget(s S) bool { return m.policy.Matrix.Knows(s) }

// Stamp returns the next last-modified time for rec.
func (m *Machine[T, S]) Stamp(rec T) time.Time {
	return domain.NextVersion(rec.LastModified(), m.clock.Now())
}

// Transition moves a record to target along the kind's matrix.
func (m *Machine[T, S]) Transition(ctx context.Context, cmd Command, target S) (*Outcome[T], error) {
	if err := requireOperator(ctx); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !m.ValidTarget(target) {
		return nil, domain.NewValidationError("status", "unknown status")
	}

	out, err := m.guarded(ctx, cmd, func(ctx context.Context, rec T) (*domain.Activity, error) {
		if err := m.CheckTransition(rec, target); err != nil {
			return nil, err
		}
		return m.ApplyTransition(ctx, rec, target)
	})
	if err != nil {
		return nil, err
	}

	m.log.InfoContext(ctx, "status changed",
		slog.String("id", cmd.ID.String()),
		slog.String("status", string(target)),
	)
	return out, nil
}

// CheckTransition returns a rule error when rec cannot move to target.
func (m *Machine[T, S]) CheckTransition(rec T, target S) error {
	from := rec.CurrentStatus()
	if !m.policy.Matrix.Allows(from, target) {
		return &domain.RuleError{
			Code:    domain.CodeTransitionForbidden,
			Message: fmt.Sprintf("cannot change %s status from %s to %s", m.policy.Kind, from, target),
			Field:   "status",
		}
	}
	return nil
}

// ApplyTransition writes a checked transition and its status_change
// Activity. It must run inside a transaction.
func (m *Machine[T, S]) ApplyTransition(ctx context.Context, rec T, target S) (*domain.Activity, error) {
	from := rec.CurrentStatus()
	if err := m.write(ctx, rec, target); err != nil {
		return nil, err
	}
	id := rec.RecordID()
	return m.ledger.Attach(ctx, ledger.Entry{
		Kind:        m.policy.Kind,
		EntityID:    &id,
		Action:      domain.ActionStatusChange,
		Description: fmt.Sprintf("Status changed from %s to %s", from, target),
		Metadata: map[string]any{
			"previousStatus": string(from),
			"newStatus":      string(target),
		},
	})
}

// Archive deactivates a record, remembering the status it had.
func (m *Machine[T, S]) Archive(ctx context.Context, cmd Command) (*Outcome[T], error) {
	if err := requireOperator(ctx); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := m.archivable(); err != nil {
		return nil, err
	}

	out, err := m.guarded(ctx, cmd, func(ctx context.Context, rec T) (*domain.Activity, error) {
		if err := m.CheckArchive(rec); err != nil {
			return nil, err
		}
		return m.ApplyArchive(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	m.log.InfoContext(ctx, "record archived", slog.String("id", cmd.ID.String()))
	return out, nil
}

// CheckArchive returns a rule error when rec cannot be archived.
func (m *Machine[T, S]) CheckArchive(rec T) error {
	if err := m.archivable(); err != nil {
		return err
	}
	if rec.CurrentStatus() == m.policy.Archived {
		return domain.NewRuleError(domain.CodeAlreadyArchived, fmt.Sprintf("%s is already archived", m.policy.Kind))
	}
	return nil
}

// ApplyArchive writes a checked archive and its record_archived Activity.
// It must run inside a transaction.
func (m *Machine[T, S]) ApplyArchive(ctx context.Context, rec T) (*domain.Activity, error) {
	from := rec.CurrentStatus()
	if err := m.write(ctx, rec, m.policy.Archived); err != nil {
		return nil, err
	}
	id := rec.RecordID()
	return m.ledger.Attach(ctx, ledger.Entry{
		Kind:        m.policy.Kind,
		EntityID:    &id,
		Action:      domain.ActionRecordArchived,
		Description: fmt.Sprintf("Archived %s (was %s)", m.policy.Kind, from),
		Metadata: map[string]any{
			"previousStatus": string(from),
			"newStatus":      string(m.policy.Archived),
		},
	})
}

// Restore reactivates an archived record into the status it held before
// archiving, or into the kind's baseline when that is unknown.
func (m *Machine[T, S]) Restore(ctx context.Context, cmd Command) (*Outcome[T], error) {
	if err := requireOperator(ctx); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := m.archivable(); err != nil {
		return nil, err
	}

	out, err := m.guarded(ctx, cmd, func(ctx context.Context, rec T) (*domain.Activity, error) {
		if rec.CurrentStatus() != m.policy.Archived {
			return nil, domain.NewRuleError(domain.CodeNotArchived, fmt.Sprintf("%s is not archived", m.policy.Kind))
		}

		target, source, err := m.restoreTarget(ctx, rec.RecordID())
		if err != nil {
			return nil, err
		}
		if m.policy.BeforeRestore != nil {
			if err := m.policy.BeforeRestore(ctx, rec, string(target)); err != nil {
				return nil, err
			}
		}

		if err := m.write(ctx, rec, target); err != nil {
			return nil, err
		}
		id := rec.RecordID()
		return m.ledger.Attach(ctx, ledger.Entry{
			Kind:        m.policy.Kind,
			EntityID:    &id,
			Action:      domain.ActionRecordRestored,
			Description: fmt.Sprintf("Restored %s to %s", m.policy.Kind, target),
			Metadata: map[string]any{
				"previousStatus": string(m.policy.Archived),
				"newStatus":      string(target),
				"restoredFrom":   source,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	m.log.InfoContext(ctx, "record restored", slog.String("id", cmd.ID.String()))
	return out, nil
}

// Restore sources recorded in record_restored metadata.
const (
	RestoredFromHistory  = "history"
	RestoredFromBaseline = "baseline"
)

func (m *Machine[T, S]) restoreTarget(ctx context.Context, id uuid.UUID) (S, string, error) {
	latest, err := m.archives.LatestByAction(ctx, m.policy.Kind, id, domain.ActionRecordArchived)
	switch {
	case err == nil:
		prev, _ := latest.MetadataString("previousStatus")
		target := S(prev)
		if target != m.policy.Archived && m.policy.Matrix.Knows(target) {
			return target, RestoredFromHistory, nil
		}
	case errors.Is(err, domain.ErrNotFound):
	default:
		return "", "", fmt.Errorf("archive history: %w", err)
	}
	return m.policy.Baseline, RestoredFromBaseline, nil
}

// Delete permanently removes a deactivated record.
func (m *Machine[T, S]) Delete(ctx context.Context, cmd Command) (*domain.Activity, error) {
	if err := requireOperator(ctx); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	out, err := m.guarded(ctx, cmd, func(ctx context.Context, rec T) (*domain.Activity, error) {
		if !rec.Deletable() {
			return nil, domain.NewRuleError(domain.CodeArchiveBeforeDelete,
				fmt.Sprintf("%s must be deactivated before it can be deleted", m.policy.Kind))
		}
		if m.policy.BeforeDelete != nil {
			if err := m.policy.BeforeDelete(ctx, rec, ""); err != nil {
				return nil, err
			}
		}

		if err := m.repo.Delete(ctx, rec.RecordID(), rec.LastModified()); err != nil {
			return nil, fmt.Errorf("delete %s: %w", m.policy.Kind, err)
		}
		id := rec.RecordID()
		return m.ledger.Attach(ctx, ledger.Entry{
			Kind:        m.policy.Kind,
			EntityID:    &id,
			Action:      domain.ActionRecordDeleted,
			Description: fmt.Sprintf("Deleted %s", m.policy.Kind),
			Metadata:    rec.Snapshot(),
		})
	})
	if err != nil {
		return nil, err
	}

	m.log.InfoContext(ctx, "record deleted", slog.String("id", cmd.ID.String()))
	return out.Activity, nil
}

// guarded loads the record inside a transaction, checks the caller's token
// and hands the record to fn.
func (m *Machine[T, S]) guarded(ctx context.Context, cmd Command, fn func(ctx context.Context, rec T) (*domain.Activity, error)) (*Outcome[T], error) {
	var out Outcome[T]
	err := m.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := m.repo.GetByID(ctx, cmd.ID)
		if err != nil {
			return fmt.Errorf("get %s: %w", m.policy.Kind, err)
		}
		if err := domain.CheckConcurrency(cmd.Token, domain.VersionToken(rec.LastModified())); err != nil {
			return err
		}

		act, err := fn(ctx, rec)
		if err != nil {
			return err
		}
		out = Outcome[T]{Record: rec, Activity: act}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Machine[T, S]) write(ctx context.Context, rec T, target S) error {
	prev := rec.LastModified()
	rec.SetStatus(target, m.Stamp(rec))
	if err := m.repo.Update(ctx, rec, prev); err != nil {
		return fmt.Errorf("update %s: %w", m.policy.Kind, err)
	}
	return nil
}

func (m *Machine[T, S]) archivable() error {
	var none S
	if m.policy.Archived == none {
		return domain.NewRuleError(domain.CodeArchiveNotSupported, fmt.Sprintf("%s records cannot be archived", m.policy.Kind))
	}
	return nil
}

func requireOperator(ctx context.Context) error {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return domain.ErrUnauthorized
	}
	return nil
}
