package bulk_test

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
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/bulk"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/ledger"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

var created = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

type leadBulk = bulk.Coordinator[*domain.Lead, domain.LeadStatus]

func setup(t *testing.T, limit int) (*leadBulk, *memory.Store, context.Context) {
	t.Helper()
	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(created.Add(time.Hour))
	log := slog.New(slog.DiscardHandler)
	l := ledger.New(log, store.Activities(), store, clock, 50, 30)
	m := lifecycle.NewMachine(log, lifecycle.Repo[*domain.Lead](store.Leads()), store, l, store.Activities(), clock,
		lifecycle.Policy[*domain.Lead, domain.LeadStatus]{
			Kind:     domain.EntityKindLead,
			Matrix:   domain.LeadTransitions,
			Archived: domain.LeadStatusArchived,
			Baseline: domain.LeadStatusNew,
		})
	return bulk.NewCoordinator(log, m, store, l, limit), store, ctxutil.WithOperator(context.Background(), "ops@wdi.example")
}

func seed(t *testing.T, store *memory.Store, statuses ...domain.LeadStatus) ([]uuid.UUID, map[uuid.UUID]string) {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(statuses))
	tokens := make(map[uuid.UUID]string, len(statuses))
	for _, st := range statuses {
		l := &domain.Lead{
			ID: uuid.New(), Name: "Lead", Email: uuid.NewString() + "@example.com",
			Source: domain.LeadSourceManual, Status: st, CreatedAt: created, UpdatedAt: created,
		}
		require.NoError(t, store.Leads().Create(context.Background(), l))
		ids = append(ids, l.ID)
		tokens[l.ID] = domain.VersionToken(l.UpdatedAt)
	}
	return ids, tokens
}

func TestApply_StatusChangeCommitsAll(t *testing.T) {
	t.Parallel()
	c, store, ctx := setup(t, 100)
	ids, tokens := seed(t, store, domain.LeadStatusNew, domain.LeadStatusContacted)

	res, err := c.Apply(ctx, bulk.Request[domain.LeadStatus]{
		Action: bulk.ActionStatusChange, IDs: append(ids, ids[0]), Tokens: tokens, TargetStatus: domain.LeadStatusQualified,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected, "duplicate ids collapse")
	assert.Nil(t, res.Activity.EntityID)
	assert.Equal(t, domain.ActionBulkOperation, res.Activity.Action)
	assert.Equal(t, "qualified", res.Activity.Metadata["targetStatus"])

	for _, id := range ids {
		got, err := store.Leads().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusQualified, got.Status)

		history, err := store.Activities().ListByEntity(ctx, domain.EntityKindLead, id, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.ActionStatusChange, history[0].Action)
	}
}

func TestApply_CollectsEveryFailureAndWritesNothing(t *testing.T) {
	t.Parallel()
	c, store, ctx := setup(t, 100)
	ids, tokens := seed(t, store, domain.LeadStatusNew, domain.LeadStatusWon, domain.LeadStatusNew, domain.LeadStatusNew)
	missing := uuid.New()
	delete(tokens, ids[2])
	tokens[ids[3]] = domain.VersionToken(created.Add(-time.Minute))

	_, err := c.Apply(ctx, bulk.Request[domain.LeadStatus]{
		Action: bulk.ActionStatusChange, IDs: append(ids, missing), Tokens: tokens, TargetStatus: domain.LeadStatusContacted,
	})
	var be *domain.BatchError
	require.ErrorAs(t, err, &be)
	assert.ErrorIs(t, err, domain.ErrValidation)

	codes := map[uuid.UUID]string{}
	for _, r := range be.Records {
		codes[r.ID] = r.Code
	}
	assert.Equal(t, map[uuid.UUID]string{
		ids[1]:  domain.CodeTransitionForbidden,
		ids[2]:  domain.CodeTokenMissing,
		ids[3]:  domain.CodeConflictDetected,
		missing: domain.CodeNotFound,
	}, codes)

	got, err := store.Leads().GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusNew, got.Status, "valid records are untouched when the batch fails")

	feed, err := store.Activities().ListRecent(ctx, domain.ActivityFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestApply_Archive(t *testing.T) {
	t.Parallel()
	c, store, ctx := setup(t, 100)
	ids, tokens := seed(t, store, domain.LeadStatusLost, domain.LeadStatusArchived)

	_, err := c.Apply(ctx, bulk.Request[domain.LeadStatus]{Action: bulk.ActionArchive, IDs: ids, Tokens: tokens})
	var be *domain.BatchError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Records, 1)
	assert.Equal(t, domain.CodeAlreadyArchived, be.Records[0].Code)

	res, err := c.Apply(ctx, bulk.Request[domain.LeadStatus]{Action: bulk.ActionArchive, IDs: ids[:1], Tokens: tokens})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)
	_, hasTarget := res.Activity.Metadata["targetStatus"]
	assert.False(t, hasTarget)

	latest, err := store.Activities().LatestByAction(ctx, domain.EntityKindLead, ids[0], domain.ActionRecordArchived)
	require.NoError(t, err)
	prev, _ := latest.MetadataString("previousStatus")
	assert.Equal(t, "lost", prev)
}

func TestApply_ShapeValidation(t *testing.T) {
	t.Parallel()
	c, store, ctx := setup(t, 2)
	ids, tokens := seed(t, store, domain.LeadStatusNew, domain.LeadStatusNew, domain.LeadStatusNew)

	tests := []struct {
		name  string
		req   bulk.Request[domain.LeadStatus]
		field string
	}{
		{"no ids", bulk.Request[domain.LeadStatus]{Action: bulk.ActionArchive}, "ids"},
		{"too many", bulk.Request[domain.LeadStatus]{Action: bulk.ActionArchive, IDs: ids, Tokens: tokens}, "ids"},
		{"unknown action", bulk.Request[domain.LeadStatus]{Action: "merge", IDs: ids[:1], Tokens: tokens}, "action"},
		{"missing target", bulk.Request[domain.LeadStatus]{Action: bulk.ActionStatusChange, IDs: ids[:1], Tokens: tokens}, "targetStatus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := c.Apply(ctx, tt.req)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Errors[0].Field)
		})
	}

	_, err := c.Apply(context.Background(), bulk.Request[domain.LeadStatus]{Action: bulk.ActionArchive, IDs: ids[:1], Tokens: tokens})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
