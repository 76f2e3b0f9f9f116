package ledger_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/memory"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/ledger"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

var start = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

func newLedger(t *testing.T) (*ledger.Ledger, *memory.Store, *clockwork.FakeClock) {
	t.Helper()
	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(start)
	l := ledger.New(slog.New(slog.DiscardHandler), store.Activities(), store, clock, 50, 30)
	return l, store, clock
}

func operatorCtx() context.Context {
	return ctxutil.WithOperator(context.Background(), "ops@wdi.example")
}

func TestAttach_RequiresTransaction(t *testing.T) {
	t.Parallel()
	l, _, _ := newLedger(t)

	id := uuid.New()
	_, err := l.Attach(operatorCtx(), ledger.Entry{Kind: domain.EntityKindLead, EntityID: &id, Action: domain.ActionLeadCreated})
	assert.ErrorIs(t, err, ledger.ErrNoTransaction)
}

func TestAttach_StampsAndWritesInsideTx(t *testing.T) {
	t.Parallel()
	l, store, _ := newLedger(t)
	ctx := operatorCtx()
	id := uuid.New()

	var got *domain.Activity
	err := store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		got, err = l.Attach(ctx, ledger.Entry{
			Kind:        domain.EntityKindLead,
			EntityID:    &id,
			Action:      domain.ActionStatusChange,
			Description: "  status changed  ",
			Metadata:    map[string]any{"previousStatus": "new", "newStatus": "contacted"},
		})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, uuid.Version(7), got.ID.Version())
	assert.Equal(t, start, got.CreatedAt)
	assert.Equal(t, "ops@wdi.example", got.PerformedBy)
	assert.Equal(t, "status changed", got.Description)

	history, err := l.History(ctx, ledger.HistoryInput{Kind: domain.EntityKindLead, EntityID: id})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, got.ID, history[0].ID)
}

func TestAttach_RolledBackWithCaller(t *testing.T) {
	t.Parallel()
	l, store, _ := newLedger(t)
	ctx := operatorCtx()
	id := uuid.New()

	err := store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := l.Attach(ctx, ledger.Entry{Kind: domain.EntityKindLead, EntityID: &id, Action: domain.ActionLeadCreated}); err != nil {
			return err
		}
		return domain.ErrConflict
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	history, err := l.History(ctx, ledger.HistoryInput{Kind: domain.EntityKindLead, EntityID: id})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAttach_RequiresOperator(t *testing.T) {
	t.Parallel()
	l, store, _ := newLedger(t)

	err := store.RunInTx(context.Background(), func(ctx context.Context) error {
		_, err := l.Attach(ctx, ledger.Entry{Kind: domain.EntityKindLead, Action: domain.ActionLeadCreated})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestHistory_ValidationAndAuth(t *testing.T) {
	t.Parallel()
	l, _, _ := newLedger(t)

	_, err := l.History(context.Background(), ledger.HistoryInput{Kind: domain.EntityKindLead, EntityID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = l.History(operatorCtx(), ledger.HistoryInput{Kind: "invoice"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

func TestRecent_NewestFirstAndLimited(t *testing.T) {
	t.Parallel()
	l, store, clock := newLedger(t)
	ctx := operatorCtx()

	for range 3 {
		id := uuid.New()
		require.NoError(t, store.RunInTx(ctx, func(ctx context.Context) error {
			_, err := l.Attach(ctx, ledger.Entry{Kind: domain.EntityKindClient, EntityID: &id, Action: domain.ActionClientCreated})
			return err
		}))
		clock.Advance(time.Minute)
	}

	feed, err := l.Recent(ctx, ledger.RecentInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.True(t, feed[0].CreatedAt.After(feed[1].CreatedAt))

	kind := domain.EntityKindLead
	feed, err = l.Recent(ctx, ledger.RecentInput{Kind: &kind})
	require.NoError(t, err)
	assert.Empty(t, feed)
}
