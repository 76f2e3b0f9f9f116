// Package client implements the Client repository using PostgreSQL.
package client

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

const table = "clients"

var columns = []string{
	"id", "name", "email", "phone", "company", "status", "notes",
	"source_lead_id", "created_at", "updated_at",
}

// Repo provides client persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new client repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	clients, err := r.selectWhere(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, postgres.MapError(err, "client", id)
	}
	if len(clients) == 0 {
		return nil, postgres.MapError(pgx.ErrNoRows, "client", id)
	}
	return clients[0], nil
}

func (r *Repo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	clients, err := r.selectWhere(ctx, sq.Eq{"id": ids})
	if err != nil {
		return nil, fmt.Errorf("get clients by ids: %w", err)
	}
	return clients, nil
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (*domain.Client, error) {
	clients, err := r.selectWhere(ctx, sq.Eq{"email": email})
	if err != nil {
		return nil, postgres.MapError(err, "client with email", email)
	}
	if len(clients) == 0 {
		return nil, postgres.MapError(pgx.ErrNoRows, "client with email", email)
	}
	return clients[0], nil
}

func (r *Repo) List(ctx context.Context, f domain.ClientFilter) ([]*domain.Client, int, error) {
	where := sq.And{}
	if f.Status != nil {
		where = append(where, sq.Eq{"status": string(*f.Status)})
	}
	if s := domain.NormalizeText(f.Search); s != "" {
		p := postgres.ContainsPattern(s)
		where = append(where, sq.Or{sq.ILike{"name": p}, sq.ILike{"email": p}, sq.ILike{"company": p}})
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	countSQL, countArgs, err := postgres.Builder().Select("count(*)").From(table).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count clients: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	page := f.Page.Normalize()
	query, args, err := postgres.Builder().Select(columns...).From(table).Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(page.Limit)).Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list clients: %w", err)
	}
	clients, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	return clients, total, nil
}

func (r *Repo) Create(ctx context.Context, c *domain.Client) error {
	query, args, err := postgres.Builder().Insert(table).Columns(columns...).Values(
		c.ID, c.Name, c.Email, c.Phone, c.Company, string(c.Status), c.Notes,
		c.SourceLeadID, c.CreatedAt, c.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert client: %w", err)
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "client", c.ID)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, c *domain.Client, expected time.Time) error {
	query, args, err := postgres.Builder().Update(table).SetMap(map[string]any{
		"name":       c.Name,
		"email":      c.Email,
		"phone":      c.Phone,
		"company":    c.Company,
		"status":     string(c.Status),
		"notes":      c.Notes,
		"updated_at": c.UpdatedAt,
	}).Where(sq.Eq{"id": c.ID, "updated_at": expected}).ToSql()
	if err != nil {
		return fmt.Errorf("build update client: %w", err)
	}
	return r.execCAS(ctx, c.ID, query, args)
}

// Delete removes the client. A client still referenced by engagements
// yields domain.ErrConflict.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID, expected time.Time) error {
	query, args, err := postgres.Builder().Delete(table).
		Where(sq.Eq{"id": id, "updated_at": expected}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete client: %w", err)
	}
	return r.execCAS(ctx, id, query, args)
}

func (r *Repo) execCAS(ctx context.Context, id uuid.UUID, query string, args []any) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("client %s: referenced by engagements: %w", id, domain.ErrConflict)
		}
		return postgres.MapError(err, "client", id)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return postgres.CASMiss(ctx, q, table, "client", id)
}

type row struct {
	ID           uuid.UUID  `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	Phone        *string    `db:"phone"`
	Company      *string    `db:"company"`
	Status       string     `db:"status"`
	Notes        string     `db:"notes"`
	SourceLeadID *uuid.UUID `db:"source_lead_id"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r *Repo) selectWhere(ctx context.Context, where sq.Sqlizer) ([]*domain.Client, error) {
	query, args, err := postgres.Builder().Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select client: %w", err)
	}
	return r.query(ctx, query, args...)
}

func (r *Repo) query(ctx context.Context, query string, args ...any) ([]*domain.Client, error) {
	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Client, len(scanned))
	for i, rw := range scanned {
		out[i] = &domain.Client{
			ID:           rw.ID,
			Name:         rw.Name,
			Email:        rw.Email,
			Phone:        rw.Phone,
			Company:      rw.Company,
			Status:       domain.ClientStatus(rw.Status),
			Notes:        rw.Notes,
			SourceLeadID: rw.SourceLeadID,
			CreatedAt:    rw.CreatedAt.UTC(),
			UpdatedAt:    rw.UpdatedAt.UTC(),
		}
	}
	return out, nil
}
