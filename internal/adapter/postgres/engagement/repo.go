// Package engagement implements the Engagement repository using PostgreSQL.
package engagement

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

const table = "engagements"

var columns = []string{
	"id", "title", "type", "description", "value", "client_id", "source_lead_id",
	"status", "notes", "created_at", "updated_at",
}

// Repo provides engagement persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new engagement repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Engagement, error) {
	items, err := r.selectWhere(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, postgres.MapError(err, "engagement", id)
	}
	if len(items) == 0 {
		return nil, postgres.MapError(pgx.ErrNoRows, "engagement", id)
	}
	return items[0], nil
}

func (r *Repo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Engagement, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := r.selectWhere(ctx, sq.Eq{"id": ids})
	if err != nil {
		return nil, fmt.Errorf("get engagements by ids: %w", err)
	}
	return items, nil
}

func (r *Repo) List(ctx context.Context, f domain.EngagementFilter) ([]*domain.Engagement, int, error) {
	where := sq.And{}
	if f.Status != nil {
		where = append(where, sq.Eq{"status": string(*f.Status)})
	}
	if f.ClientID != nil {
		where = append(where, sq.Eq{"client_id": *f.ClientID})
	}
	if s := domain.NormalizeText(f.Search); s != "" {
		p := postgres.ContainsPattern(s)
		where = append(where, sq.Or{sq.ILike{"title": p}, sq.ILike{"type": p}})
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	countSQL, countArgs, err := postgres.Builder().Select("count(*)").From(table).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count engagements: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count engagements: %w", err)
	}

	page := f.Page.Normalize()
	query, args, err := postgres.Builder().Select(columns...).From(table).Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(page.Limit)).Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list engagements: %w", err)
	}
	items, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list engagements: %w", err)
	}
	return items, total, nil
}

// CountByClient returns how many engagements reference clientID.
func (r *Repo) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	query, args, err := postgres.Builder().Select("count(*)").From(table).
		Where(sq.Eq{"client_id": clientID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count by client: %w", err)
	}
	var n int
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count engagements by client: %w", err)
	}
	return n, nil
}

// Create inserts an engagement. An unknown client_id yields domain.ErrNotFound.
func (r *Repo) Create(ctx context.Context, e *domain.Engagement) error {
	query, args, err := postgres.Builder().Insert(table).Columns(columns...).Values(
		e.ID, e.Title, e.Type, e.Description, e.Value, e.ClientID, e.SourceLeadID,
		string(e.Status), e.Notes, e.CreatedAt, e.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert engagement: %w", err)
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "engagement", e.ID)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, e *domain.Engagement, expected time.Time) error {
	query, args, err := postgres.Builder().Update(table).SetMap(map[string]any{
		"title":       e.Title,
		"type":        e.Type,
		"description": e.Description,
		"value":       e.Value,
		"status":      string(e.Status),
		"notes":       e.Notes,
		"updated_at":  e.UpdatedAt,
	}).Where(sq.Eq{"id": e.ID, "updated_at": expected}).ToSql()
	if err != nil {
		return fmt.Errorf("build update engagement: %w", err)
	}
	return r.execCAS(ctx, e.ID, query, args)
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID, expected time.Time) error {
	query, args, err := postgres.Builder().Delete(table).
		Where(sq.Eq{"id": id, "updated_at": expected}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete engagement: %w", err)
	}
	return r.execCAS(ctx, id, query, args)
}

func (r *Repo) execCAS(ctx context.Context, id uuid.UUID, query string, args []any) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "engagement", id)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return postgres.CASMiss(ctx, q, table, "engagement", id)
}

type row struct {
	ID           uuid.UUID  `db:"id"`
	Title        string     `db:"title"`
	Type         *string    `db:"type"`
	Description  *string    `db:"description"`
	Value        *int64     `db:"value"`
	ClientID     uuid.UUID  `db:"client_id"`
	SourceLeadID *uuid.UUID `db:"source_lead_id"`
	Status       string     `db:"status"`
	Notes        string     `db:"notes"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r *Repo) selectWhere(ctx context.Context, where sq.Sqlizer) ([]*domain.Engagement, error) {
	query, args, err := postgres.Builder().Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select engagement: %w", err)
	}
	return r.query(ctx, query, args...)
}

func (r *Repo) query(ctx context.Context, query string, args ...any) ([]*domain.Engagement, error) {
	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Engagement, len(scanned))
	for i, rw := range scanned {
		out[i] = &domain.Engagement{
			ID:           rw.ID,
			Title:        rw.Title,
			Type:         rw.Type,
			Description:  rw.Description,
			Value:        rw.Value,
			ClientID:     rw.ClientID,
			SourceLeadID: rw.SourceLeadID,
			Status:       domain.EngagementStatus(rw.Status),
			Notes:        rw.Notes,
			CreatedAt:    rw.CreatedAt.UTC(),
			UpdatedAt:    rw.UpdatedAt.UTC(),
		}
	}
	return out, nil
}
