package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/memory"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres"
	pgactivity "github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres/activity"
	pgclient "github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres/client"
	pgengagement "github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres/engagement"
	pglead "github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres/lead"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/config"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/migrations"
)

type leadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Lead, error)
	FindActiveByEmail(ctx context.Context, email string) (*domain.Lead, error)
	List(ctx context.Context, f domain.LeadFilter) ([]*domain.Lead, int, error)
	Create(ctx context.Context, l *domain.Lead) error
	Update(ctx context.Context, l *domain.Lead, expected time.Time) error
	Delete(ctx context.Context, id uuid.UUID, expected time.Time) error
}

type clientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Client, error)
	FindByEmail(ctx context.Context, email string) (*domain.Client, error)
	List(ctx context.Context, f domain.ClientFilter) ([]*domain.Client, int, error)
	Create(ctx context.Context, c *domain.Client) error
	Update(ctx context.Context, c *domain.Client, expected time.Time) error
	Delete(ctx context.Context, id uuid.UUID, expected time.Time) error
}

type engagementStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Engagement, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Engagement, error)
	List(ctx context.Context, f domain.EngagementFilter) ([]*domain.Engagement, int, error)
	CountByClient(ctx context.Context, clientID uuid.UUID) (int, error)
	Create(ctx context.Context, e *domain.Engagement) error
	Update(ctx context.Context, e *domain.Engagement, expected time.Time) error
	Delete(ctx context.Context, id uuid.UUID, expected time.Time) error
}

type activityStore interface {
	Create(ctx context.Context, a *domain.Activity) error
	ListByEntity(ctx context.Context, kind domain.EntityKind, id uuid.UUID, limit int) ([]*domain.Activity, error)
	ListByEntitySince(ctx context.Context, kind domain.EntityKind, id uuid.UUID, since time.Time, actions ...domain.ActivityAction) ([]*domain.Activity, error)
	LatestByAction(ctx context.Context, kind domain.EntityKind, id uuid.UUID, action domain.ActivityAction) (*domain.Activity, error)
	ListRecent(ctx context.Context, f domain.ActivityFilter) ([]*domain.Activity, error)
}

type txStore interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	InTx(ctx context.Context) bool
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Stores is one configured entity store adapter.
type Stores struct {
	Driver      string
	leads       leadStore
	clients     clientStore
	engagements engagementStore
	activities  activityStore
	tx          txStore
	health      pinger
	close       func()
}

// NewMemoryStores backs every collection with a single in-memory store.
func NewMemoryStores() *Stores {
	s := memory.NewStore()
	return &Stores{
		Driver:      config.StoreDriverMemory,
		leads:       s.Leads(),
		clients:     s.Clients(),
		engagements: s.Engagements(),
		activities:  s.Activities(),
		tx:          s,
		health:      s,
		close:       func() {},
	}
}

// NewPostgresStores backs every collection with pool. Close closes the pool.
func NewPostgresStores(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Driver:      config.StoreDriverPostgres,
		leads:       pglead.New(pool),
		clients:     pgclient.New(pool),
		engagements: pgengagement.New(pool),
		activities:  pgactivity.New(pool),
		tx:          postgres.NewTxManager(pool),
		health:      pool,
		close:       pool.Close,
	}
}

// Close releases the underlying connections.
func (s *Stores) Close() { s.close() }

// openStores connects the adapter selected by cfg.Store.Driver.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Stores, error) {
	if !cfg.Store.UsesPostgres() {
		log.WarnContext(ctx, "using in-memory store; data is lost on restart")
		return NewMemoryStores(), nil
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, cfg.Database.DSN, migrations.FS, log); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return NewPostgresStores(pool), nil
}
