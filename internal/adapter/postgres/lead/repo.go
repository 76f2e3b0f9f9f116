// Package lead implements the Lead repository using PostgreSQL.
package lead

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

const table = "leads"

var columns = []string{
	"id", "name", "email", "phone", "company", "message", "service_type",
	"estimated_value", "source", "status", "notes", "converted_to_client_id",
	"converted_at", "created_at", "updated_at",
}

// Repo provides lead persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new lead repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	leads, err := r.selectWhere(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, postgres.MapError(err, "lead", id)
	}
	if len(leads) == 0 {
		return nil, postgres.MapError(pgx.ErrNoRows, "lead", id)
	}
	return leads[0], nil
}

// GetByIDs returns the leads that exist among ids, in no particular order.
func (r *Repo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	leads, err := r.selectWhere(ctx, sq.Eq{"id": ids})
	if err != nil {
		return nil, fmt.Errorf("get leads by ids: %w", err)
	}
	return leads, nil
}

// FindActiveByEmail returns the non-archived lead holding email.
func (r *Repo) FindActiveByEmail(ctx context.Context, email string) (*domain.Lead, error) {
	leads, err := r.selectWhere(ctx, sq.And{
		sq.Eq{"email": email},
		sq.NotEq{"status": string(domain.LeadStatusArchived)},
	})
	if err != nil {
		return nil, postgres.MapError(err, "lead with email", email)
	}
	if len(leads) == 0 {
		return nil, postgres.MapError(pgx.ErrNoRows, "lead with email", email)
	}
	return leads[0], nil
}

// List returns one page of leads, newest first, and the total match count.
func (r *Repo) List(ctx context.Context, f domain.LeadFilter) ([]*domain.Lead, int, error) {
	where := sq.And{}
	if f.Status != nil {
		where = append(where, sq.Eq{"status": string(*f.Status)})
	}
	if f.Source != nil {
		where = append(where, sq.Eq{"source": string(*f.Source)})
	}
	if s := domain.NormalizeText(f.Search); s != "" {
		p := postgres.ContainsPattern(s)
		where = append(where, sq.Or{sq.ILike{"name": p}, sq.ILike{"email": p}, sq.ILike{"company": p}})
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	countSQL, countArgs, err := postgres.Builder().Select("count(*)").From(table).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count leads: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	page := f.Page.Normalize()
	query, args, err := postgres.Builder().Select(columns...).From(table).Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(page.Limit)).Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list leads: %w", err)
	}
	leads, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	return leads, total, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a lead. A clash on the active-email index yields
// domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, l *domain.Lead) error {
	query, args, err := postgres.Builder().Insert(table).Columns(columns...).Values(
		l.ID, l.Name, l.Email, l.Phone, l.Company, l.Message, l.ServiceType,
		l.EstimatedValue, string(l.Source), string(l.Status), l.Notes, l.ConvertedToClientID,
		l.ConvertedAt, l.CreatedAt, l.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert lead: %w", err)
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "lead", l.ID)
	}
	return nil
}

// Update writes every mutable column when the stored updated_at still equals
// expected. Zero affected rows on an existing lead yields domain.ErrConflict.
func (r *Repo) Update(ctx context.Context, l *domain.Lead, expected time.Time) error {
	query, args, err := postgres.Builder().Update(table).SetMap(map[string]any{
		"name":                   l.Name,
		"email":                  l.Email,
		"phone":                  l.Phone,
		"company":                l.Company,
		"message":                l.Message,
		"service_type":           l.ServiceType,
		"estimated_value":        l.EstimatedValue,
		"source":                 string(l.Source),
		"status":                 string(l.Status),
		"notes":                  l.Notes,
		"converted_to_client_id": l.ConvertedToClientID,
		"converted_at":           l.ConvertedAt,
		"updated_at":             l.UpdatedAt,
	}).Where(sq.Eq{"id": l.ID, "updated_at": expected}).ToSql()
	if err != nil {
		return fmt.Errorf("build update lead: %w", err)
	}
	return r.execCAS(ctx, l.ID, query, args)
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID, expected time.Time) error {
	query, args, err := postgres.Builder().Delete(table).
		Where(sq.Eq{"id": id, "updated_at": expected}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete lead: %w", err)
	}
	return r.execCAS(ctx, id, query, args)
}

func (r *Repo) execCAS(ctx context.Context, id uuid.UUID, query string, args []any) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "lead", id)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return postgres.CASMiss(ctx, q, table, "lead", id)
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

type row struct {
	ID                  uuid.UUID  `db:"id"`
	Name                string     `db:"name"`
	Email               string     `db:"email"`
	Phone               *string    `db:"phone"`
	Company             *string    `db:"company"`
	Message             string     `db:"message"`
	ServiceType         *string    `db:"service_type"`
	EstimatedValue      *int64     `db:"estimated_value"`
	Source              string     `db:"source"`
	Status              string     `db:"status"`
	Notes               string     `db:"notes"`
	ConvertedToClientID *uuid.UUID `db:"converted_to_client_id"`
	ConvertedAt         *time.Time `db:"converted_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

func (r *Repo) selectWhere(ctx context.Context, where sq.Sqlizer) ([]*domain.Lead, error) {
	query, args, err := postgres.Builder().Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select lead: %w", err)
	}
	return r.query(ctx, query, args...)
}

func (r *Repo) query(ctx context.Context, query string, args ...any) ([]*domain.Lead, error) {
	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Lead, len(scanned))
	for i, rw := range scanned {
		out[i] = toDomain(rw)
	}
	return out, nil
}

func toDomain(rw row) *domain.Lead {
	l := &domain.Lead{
		ID:                  rw.ID,
		Name:                rw.Name,
		Email:               rw.Email,
		Phone:               rw.Phone,
		Company:             rw.Company,
		Message:             rw.Message,
		ServiceType:         rw.ServiceType,
		EstimatedValue:      rw.EstimatedValue,
		Source:              domain.LeadSource(rw.Source),
		Status:              domain.LeadStatus(rw.Status),
		Notes:               rw.Notes,
		ConvertedToClientID: rw.ConvertedToClientID,
		CreatedAt:           rw.CreatedAt.UTC(),
		UpdatedAt:           rw.UpdatedAt.UTC(),
	}
	if rw.ConvertedAt != nil {
		at := rw.ConvertedAt.UTC()
		l.ConvertedAt = &at
	}
	return l
}
