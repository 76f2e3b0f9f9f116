//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres/testhelper"
)

// clientExists checks whether a client row with the given ID exists in the database.
func clientExists(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("clientExists query: %v", err)
	}
	return exists
}

func insertClient(ctx context.Context, q postgres.Querier, id uuid.UUID, email string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO clients (id, name, email, status, created_at, updated_at)
		 VALUES ($1, $2, $3, 'active', now(), now())`,
		id, "Tx Test", email,
	)
	return err
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	clientID := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		err := insertClient(ctx, q, clientID, "commit-test@example.com")
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !clientExists(t, pool, clientID) {
		t.Fatal("expected client to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	clientID := uuid.New()
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		execErr := insertClient(ctx, q, clientID, "rollback-test@example.com")
		if execErr != nil {
			t.Fatalf("insert inside tx failed: %v", execErr)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}

	if clientExists(t, pool, clientID) {
		t.Fatal("expected client NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	clientID := uuid.New()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("expected panic value %q, got %v", "test panic", r)
		}

		// Verify data was rolled back.
		if clientExists(t, pool, clientID) {
			t.Fatal("expected client NOT to exist after panic-rolled-back transaction")
		}
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		err := insertClient(ctx, q, clientID, "panic-test@example.com")
		if err != nil {
			t.Fatalf("insert inside tx failed: %v", err)
		}
		panic("test panic")
	})
}

func TestRunInTx_QuerierFromCtx_UsesTx(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	clientID := uuid.New()

	// Insert inside a transaction, then verify it's visible within the same tx
	// but NOT outside until commit.
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		err := insertClient(ctx, q, clientID, "ctx-test@example.com")
		if err != nil {
			return err
		}

		// Should be visible within the transaction.
		var exists bool
		err = q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1)`, clientID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			t.Fatal("expected client to be visible within the transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	// After commit, also visible outside.
	if !clientExists(t, pool, clientID) {
		t.Fatal("expected client to exist after committed transaction")
	}
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	clientID := uuid.New()
	sentinel := errors.New("outer failure")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if !tm.InTx(ctx) {
			t.Fatal("expected InTx inside RunInTx")
		}
		if err := tm.RunInTx(ctx, func(ctx context.Context) error {
			return insertClient(ctx, postgres.QuerierFromCtx(ctx, pool), clientID, "nested-test@example.com")
		}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}

	if clientExists(t, pool, clientID) {
		t.Fatal("inner write must roll back with the outer transaction")
	}
	if tm.InTx(context.Background()) {
		t.Fatal("background context must not report a transaction")
	}
}
