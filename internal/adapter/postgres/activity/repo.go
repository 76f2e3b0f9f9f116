// Package activity implements the Activity repository using PostgreSQL.
// It provides append-only operations for CRM audit entries.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

const table = "activities"

var columns = []string{
	"id", "entity_kind", "entity_id", "action", "description", "performed_by", "metadata", "created_at",
}

// Repo provides activity persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new activity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new activity.
func (r *Repo) Create(ctx context.Context, a *domain.Activity) error {
	meta := a.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("activity marshal metadata: %w", err)
	}

	query, args, err := postgres.Builder().Insert(table).Columns(columns...).Values(
		a.ID, string(a.EntityKind), a.EntityID, string(a.Action), a.Description,
		a.PerformedBy, metaJSON, a.CreatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert activity: %w", err)
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "activity", a.ID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListByEntity returns the history of a record, newest first, limited to
// limit entries when limit > 0.
func (r *Repo) ListByEntity(ctx context.Context, kind domain.EntityKind, id uuid.UUID, limit int) ([]*domain.Activity, error) {
	b := r.selectFor(kind, id)
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	items, err := r.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("get activities by entity: %w", err)
	}
	return items, nil
}

// LatestByAction returns the newest activity with action for a record.
func (r *Repo) LatestByAction(ctx context.Context, kind domain.EntityKind, id uuid.UUID, action domain.ActivityAction) (*domain.Activity, error) {
	b := r.selectFor(kind, id).Where(sq.Eq{"action": string(action)}).Limit(1)
	items, err := r.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("get latest %s activity: %w", action, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("activity %s for %s %s: %w", action, kind, id, domain.ErrNotFound)
	}
	return items[0], nil
}

// ListByEntitySince returns a record's activities created at or after since,
// restricted to actions when any are given.
func (r *Repo) ListByEntitySince(ctx context.Context, kind domain.EntityKind, id uuid.UUID, since time.Time, actions ...domain.ActivityAction) ([]*domain.Activity, error) {
	b := r.selectFor(kind, id).Where(sq.GtOrEq{"created_at": since})
	if len(actions) > 0 {
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = string(a)
		}
		b = b.Where(sq.Eq{"action": names})
	}
	items, err := r.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("get activities since %s: %w", since.Format(time.RFC3339), err)
	}
	return items, nil
}

// ListRecent returns the newest activities across every record.
func (r *Repo) ListRecent(ctx context.Context, f domain.ActivityFilter) ([]*domain.Activity, error) {
	b := postgres.Builder().Select(columns...).From(table).OrderBy("created_at DESC", "id DESC")
	if f.Kind != nil {
		b = b.Where(sq.Eq{"entity_kind": string(*f.Kind)})
	}
	if f.Action != nil {
		b = b.Where(sq.Eq{"action": string(*f.Action)})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}
	items, err := r.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("list recent activities: %w", err)
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

// Activity ids are UUIDv7, so id DESC breaks created_at ties newest first.
func (r *Repo) selectFor(kind domain.EntityKind, id uuid.UUID) sq.SelectBuilder {
	return postgres.Builder().Select(columns...).From(table).
		Where(sq.Eq{"entity_kind": string(kind), "entity_id": id}).
		OrderBy("created_at DESC", "id DESC")
}

type row struct {
	ID          uuid.UUID  `db:"id"`
	EntityKind  string     `db:"entity_kind"`
	EntityID    *uuid.UUID `db:"entity_id"`
	Action      string     `db:"action"`
	Description string     `db:"description"`
	PerformedBy string     `db:"performed_by"`
	Metadata    []byte     `db:"metadata"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (r *Repo) query(ctx context.Context, b sq.SelectBuilder) ([]*domain.Activity, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select activity: %w", err)
	}
	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Activity, len(scanned))
	for i, rw := range scanned {
		a, err := toDomain(rw)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func toDomain(rw row) (*domain.Activity, error) {
	var meta map[string]any
	if len(rw.Metadata) > 0 {
		if err := json.Unmarshal(rw.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("activity %s unmarshal metadata: %w", rw.ID, err)
		}
	}
	return &domain.Activity{
		ID:          rw.ID,
		EntityKind:  domain.EntityKind(rw.EntityKind),
		EntityID:    rw.EntityID,
		Action:      domain.ActivityAction(rw.Action),
		Description: rw.Description,
		PerformedBy: rw.PerformedBy,
		Metadata:    meta,
		CreatedAt:   rw.CreatedAt.UTC(),
	}, nil
}
