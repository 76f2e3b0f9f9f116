package lead_test

import (
	"context"
	"log/slog"
	"sync"
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
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lead"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

var start = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

type env struct {
	svc   *lead.Service
	store *memory.Store
	clock *clockwork.FakeClock
	ctx   context.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(start)
	log := slog.New(slog.DiscardHandler)
	l := ledger.New(log, store.Activities(), store, clock, 50, 30)
	svc := lead.NewService(log, store.Leads(), store.Activities(), l, store, clock, lead.Options{
		DuplicateWindow: 5 * time.Minute,
		BulkMaxRecords:  100,
	})
	return &env{svc: svc, store: store, clock: clock, ctx: ctxutil.WithOperator(context.Background(), "ops@wdi.example")}
}

func (e *env) history(t *testing.T, l *domain.Lead) []*domain.Activity {
	t.Helper()
	acts, err := e.store.Activities().ListByEntity(e.ctx, domain.EntityKindLead, l.ID, 50)
	require.NoError(t, err)
	return acts
}

func ptr[T any](v T) *T { return &v }

func token(l *domain.Lead) string { return domain.VersionToken(l.UpdatedAt) }

func ruleCode(t *testing.T, err error) string {
	t.Helper()
	var re *domain.RuleError
	require.ErrorAs(t, err, &re)
	return re.Code
}

func (e *env) create(t *testing.T, email string) *domain.Lead {
	t.Helper()
	out, err := e.svc.Create(e.ctx, lead.CreateInput{Name: "Dana Levi", Email: email, Message: "website"})
	require.NoError(t, err)
	return out.Record
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_Success(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	out, err := e.svc.Create(e.ctx, lead.CreateInput{
		Name:           "  Dana Levi ",
		Email:          "Dana@Example.com",
		Company:        ptr(""),
		EstimatedValue: ptr(int64(40000)),
		Note:           "met at expo",
	})
	require.NoError(t, err)

	l := out.Record
	assert.Equal(t, "Dana Levi", l.Name)
	assert.Equal(t, "dana@example.com", l.Email)
	assert.Nil(t, l.Company)
	assert.Equal(t, domain.LeadSourceManual, l.Source)
	assert.Equal(t, domain.LeadStatusNew, l.Status)
	assert.Contains(t, l.Notes, "ops@wdi.example ---\nmet at expo")
	assert.Equal(t, domain.ActionLeadCreated, out.Activity.Action)
	assert.Equal(t, "ops@wdi.example", out.Activity.PerformedBy)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.create(t, "dana@example.com")

	_, err := e.svc.Create(e.ctx, lead.CreateInput{Name: "Other", Email: "DANA@example.com"})
	assert.Equal(t, domain.CodeDuplicateEmail, ruleCode(t, err))
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := e.svc.Create(e.ctx, lead.CreateInput{Email: "not-an-email", Source: "fax", EstimatedValue: ptr(int64(-1))})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	fields := map[string]bool{}
	for _, fe := range ve.Errors {
		fields[fe.Field] = true
	}
	assert.Equal(t, map[string]bool{"name": true, "email": true, "source": true, "estimatedValue": true}, fields)

	_, err = e.svc.Create(context.Background(), lead.CreateInput{Name: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdate_ChangesAndNote(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	l := e.create(t, "dana@example.com")
	e.clock.Advance(time.Minute)

	out, err := e.svc.Update(e.ctx, lead.UpdateInput{
		ID: l.ID, Token: token(l),
		Company: ptr("Levi Studio"),
		Name:    ptr("Dana Levi"),
		Note:    ptr("called back"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Levi Studio", *out.Record.Company)
	assert.Contains(t, out.Record.Notes, "called back")
	assert.True(t, out.Record.UpdatedAt.After(l.UpdatedAt))

	require.Equal(t, domain.ActionRecordUpdated, out.Activity.Action)
	changed := out.Activity.Metadata["changedFields"].(map[string]any)
	assert.Len(t, changed, 1, "unchanged name is not reported")
	assert.Equal(t, map[string]any{"old": "", "new": "Levi Studio"}, changed["company"])

	actions := []domain.ActivityAction{}
	for _, a := range e.history(t, l) {
		actions = append(actions, a.Action)
	}
	assert.ElementsMatch(t, []domain.ActivityAction{domain.ActionLeadCreated, domain.ActionNoteAdded, domain.ActionRecordUpdated}, actions)
}

func TestUpdate_NoOpWritesNothing(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	l := e.create(t, "dana@example.com")

	out, err := e.svc.Update(e.ctx, lead.UpdateInput{ID: l.ID, Token: token(l), Name: ptr("Dana Levi"), Note: ptr("   ")})
	require.NoError(t, err)
	assert.Nil(t, out.Activity)
	assert.Equal(t, l.UpdatedAt, out.Record.UpdatedAt)
	assert.Len(t, e.history(t, l), 1)
}

func TestUpdate_NotesAreAppendOnly(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	l := e.create(t, "dana@example.com")

	first, err := e.svc.Update(e.ctx, lead.UpdateInput{ID: l.ID, Token: token(l), Note: ptr("one")})
	require.NoError(t, err)
	e.clock.Advance(time.Hour)
	second, err := e.svc.Update(e.ctx, lead.UpdateInput{ID: l.ID, Token: token(first.Record), Note: ptr("two")})
	require.NoError(t, err)

	assert.True(t, len(second.Record.Notes) > len(first.Record.Notes))
	assert.Equal(t, first.Record.Notes, second.Record.Notes[:len(first.Record.Notes)])
}

func TestUpdate_EmailTakenAndStaleToken(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.create(t, "taken@example.com")
	l := e.create(t, "dana@example.com")

	_, err := e.svc.Update(e.ctx, lead.UpdateInput{ID: l.ID, Token: token(l), Email: ptr("taken@example.com")})
	assert.Equal(t, domain.CodeDuplicateEmail, ruleCode(t, err))

	_, err = e.svc.Update(e.ctx, lead.UpdateInput{ID: l.ID, Token: "2020-01-01T00:00:00Z", Name: ptr("New")})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdate_ArchivedLeadMayTakeActiveEmail(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.create(t, "taken@example.com")
	l := e.create(t, "dana@example.com")

	archived, err := e.svc.Archive(e.ctx, lifecycle.Command{ID: l.ID, Token: token(l)})
	require.NoError(t, err)

	updated, err := e.svc.Update(e.ctx, lead.UpdateInput{
		ID: l.ID, Token: token(archived.Record), Email: ptr("taken@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "taken@example.com", updated.Record.Email)
	assert.Equal(t, domain.LeadStatusArchived, updated.Record.Status)

	_, err = e.svc.Restore(e.ctx, lifecycle.Command{ID: l.ID, Token: token(updated.Record)})
	assert.Equal(t, domain.CodeDuplicateEmail, ruleCode(t, err), "restore still guards the active email")
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestArchiveRestore_EmailReclaimed(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	l := e.create(t, "dana@example.com")

	archived, err := e.svc.Archive(e.ctx, lifecycle.Command{ID: l.ID, Token: token(l)})
	require.NoError(t, err)

	e.create(t, "dana@example.com")

	_, err = e.svc.Restore(e.ctx, lifecycle.Command{ID: l.ID, Token: token(archived.Record)})
	assert.Equal(t, domain.CodeDuplicateEmail, ruleCode(t, err))
}

func TestBulk_StatusChange(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	a := e.create(t, "a@example.com")
	b := e.create(t, "b@example.com")

	res, err := e.svc.Bulk(e.ctx, bulk.Request[domain.LeadStatus]{
		Action:       bulk.ActionStatusChange,
		IDs:          []uuid.UUID{a.ID, b.ID},
		Tokens:       map[uuid.UUID]string{a.ID: token(a), b.ID: token(b)},
		TargetStatus: domain.LeadStatusContacted,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected)
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func submission(msg string) lead.SubmitInput {
	return lead.SubmitInput{Name: "Yossi", Email: "yossi@example.com", Message: msg}
}

func (e *env) onlyLead(t *testing.T) *domain.Lead {
	t.Helper()
	items, total, err := e.store.Leads().List(e.ctx, domain.LeadFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	return items[0]
}

func TestSubmit_CreatesLead(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	res, err := e.svc.Submit(context.Background(), submission("we need a new site"))
	require.NoError(t, err)
	assert.True(t, res.Received)
	assert.Equal(t, lead.IntakeCreated, res.Outcome)

	l := e.onlyLead(t)
	assert.Equal(t, domain.LeadSourceWebsite, l.Source)
	acts := e.history(t, l)
	require.Len(t, acts, 1)
	assert.Equal(t, ctxutil.PublicIntakeOperator, acts[0].PerformedBy)
	assert.Equal(t, "public", acts[0].Metadata["channel"])
}

func TestSubmit_ReplayWithinWindowSuppressed(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := e.svc.Submit(context.Background(), submission("we need a new site"))
	require.NoError(t, err)
	before := e.onlyLead(t)

	e.clock.Advance(4 * time.Minute)
	res, err := e.svc.Submit(context.Background(), submission("  we need a new site  "))
	require.NoError(t, err)
	assert.True(t, res.Received)
	assert.Equal(t, lead.IntakeSuppressed, res.Outcome)

	after := e.onlyLead(t)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Len(t, e.history(t, after), 1)
}

func TestSubmit_NewMessageAppended(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := e.svc.Submit(context.Background(), submission("first"))
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	res, err := e.svc.Submit(context.Background(), submission("second"))
	require.NoError(t, err)
	assert.Equal(t, lead.IntakeAppended, res.Outcome)

	l := e.onlyLead(t)
	assert.Contains(t, l.Notes, "public-intake ---\nsecond")
	acts := e.history(t, l)
	require.Len(t, acts, 2)
	assert.Equal(t, domain.ActionDuplicateSubmission, acts[0].Action)
}

func TestSubmit_SameMessageAfterWindowAppended(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := e.svc.Submit(context.Background(), submission("hello"))
	require.NoError(t, err)
	e.clock.Advance(6 * time.Minute)
	res, err := e.svc.Submit(context.Background(), submission("hello"))
	require.NoError(t, err)
	assert.Equal(t, lead.IntakeAppended, res.Outcome)
}

func TestSubmit_ConcurrentReplaysCreateOneLead(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.svc.Submit(context.Background(), submission("racing"))
			assert.NoError(t, err)
			assert.True(t, res != nil && res.Received)
		}()
	}
	wg.Wait()

	l := e.onlyLead(t)
	assert.Len(t, e.history(t, l), 1)
}

func TestSubmit_Validation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := e.svc.Submit(context.Background(), lead.SubmitInput{Name: "x", Email: "x@example.com"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "message", ve.Errors[0].Field)
}
