package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/ledger"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

// Diff applies an edit to a copy of rec. It returns the edited copy and the
// fields that changed, keyed by name with {"old", "new"} values. rec itself
// must not be modified.
type Diff[T any] func(rec T) (next T, changes map[string]any)

// Edit is a field edit of one record with an optional note.
type Edit[T any] struct {
	Command
	Note string
	Diff Diff[T]
	// BeforeWrite runs inside the transaction when at least one field
	// changed.
	BeforeWrite func(ctx context.Context, next T, changes map[string]any) error
	// WriteError maps a repository write error to a domain error, or
	// returns nil to keep the wrapped original.
	WriteError func(err error) error
}

// Edit writes a field edit and its activities: note_added when a note is
// given, then record_updated when fields changed. An edit that changes no
// field and carries no note writes nothing and returns the stored record
// with a nil Activity.
func (m *Machine[T, S]) Edit(ctx context.Context, e Edit[T]) (*Outcome[T], error) {
	operator, ok := ctxutil.OperatorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := e.Command.Validate(); err != nil {
		return nil, err
	}
	note := strings.TrimSpace(e.Note)

	var out Outcome[T]
	err := m.tx.RunInTx(ctx, func(ctx context.Context) error {
		old, err := m.repo.GetByID(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("get %s: %w", m.policy.Kind, err)
		}
		if err := domain.CheckConcurrency(e.Token, domain.VersionToken(old.LastModified())); err != nil {
			return err
		}

		next, changes := e.Diff(old)
		if len(changes) == 0 && note == "" {
			out = Outcome[T]{Record: old}
			return nil
		}
		if len(changes) > 0 && e.BeforeWrite != nil {
			if err := e.BeforeWrite(ctx, next, changes); err != nil {
				return err
			}
		}

		next.Edited(note, operator, m.Stamp(old))
		if err := m.repo.Update(ctx, next, old.LastModified()); err != nil {
			if e.WriteError != nil {
				if mapped := e.WriteError(err); mapped != nil {
					return mapped
				}
			}
			return fmt.Errorf("update %s: %w", m.policy.Kind, err)
		}

		out = Outcome[T]{Record: next}
		id := next.RecordID()
		if note != "" {
			if out.Activity, err = m.ledger.Attach(ctx, ledger.Entry{
				Kind:        m.policy.Kind,
				EntityID:    &id,
				Action:      domain.ActionNoteAdded,
				Description: "Note added",
				Metadata:    map[string]any{"note": note},
			}); err != nil {
				return err
			}
		}
		if len(changes) > 0 {
			if out.Activity, err = m.ledger.Attach(ctx, ledger.Entry{
				Kind:        m.policy.Kind,
				EntityID:    &id,
				Action:      domain.ActionRecordUpdated,
				Description: "Updated " + strings.Join(changedFields(changes), ", "),
				Metadata:    map[string]any{"changedFields": changes},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Activity != nil {
		m.log.InfoContext(ctx, "record updated",
			slog.String("operator", operator),
			slog.String("id", e.ID.String()),
		)
	}
	return &out, nil
}

func changedFields(changes map[string]any) []string {
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
