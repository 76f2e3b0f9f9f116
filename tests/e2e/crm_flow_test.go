//go:build e2e

package e2e_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestE2E_Health(t *testing.T) {
	ts := setupTestServer(t)

	code, body := ts.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	store := body["components"].(map[string]any)["store"].(map[string]any)
	assert.Equal(t, "ok", store["status"])
	assert.Equal(t, "postgres", store["driver"])
}

func TestE2E_LeadToClientLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	email := uuid.NewString() + "@example.com"

	code, body := ts.do(t, http.MethodPost, "/api/admin/leads", map[string]any{
		"name": "Yael Cohen", "email": email, "message": "renovation", "company": "Cohen Ltd",
	}, true)
	require.Equal(t, http.StatusCreated, code, body)
	lead := dataOf(t, body)
	id := lead["id"].(string)

	for _, status := range []string{"contacted", "proposal_sent", "won"} {
		code, body = ts.do(t, http.MethodPost, "/api/admin/leads/"+id+"/status",
			map[string]any{"updatedAt": lead["updatedAt"], "status": status}, true)
		require.Equal(t, http.StatusOK, code, body)
		lead = dataOf(t, body)
	}

	code, body = ts.do(t, http.MethodPost, "/api/admin/leads/"+id+"/convert",
		map[string]any{"updatedAt": lead["updatedAt"], "engagementTitle": "Renovation"}, true)
	require.Equal(t, http.StatusOK, code, body)
	conv := dataOf(t, body)
	client := conv["client"].(map[string]any)
	assert.Equal(t, email, client["email"])
	assert.Equal(t, "Renovation", conv["engagement"].(map[string]any)["title"])

	code, body = ts.do(t, http.MethodGet, "/api/admin/leads/"+id+"/activities", nil, true)
	require.Equal(t, http.StatusOK, code)
	history := body["data"].([]any)
	assert.Len(t, history, 5, "created, three status changes, converted")

	clientID := client["id"].(string)
	code, body = ts.do(t, http.MethodDelete, "/api/admin/clients/"+clientID,
		map[string]any{"updatedAt": client["updatedAt"]}, true)
	assert.Equal(t, http.StatusBadRequest, code, "client with engagements cannot be deleted")
	assert.Equal(t, "validation", body["category"])
}

func TestE2E_StaleTokenConflict(t *testing.T) {
	ts := setupTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/api/admin/leads", map[string]any{
		"name": "Omer", "email": uuid.NewString() + "@example.com", "message": "hi",
	}, true)
	require.Equal(t, http.StatusCreated, code, body)
	lead := dataOf(t, body)
	id, stale := lead["id"].(string), lead["updatedAt"]

	code, _ = ts.do(t, http.MethodPost, "/api/admin/leads/"+id+"/status",
		map[string]any{"updatedAt": stale, "status": "contacted"}, true)
	require.Equal(t, http.StatusOK, code)

	code, body = ts.do(t, http.MethodPatch, "/api/admin/leads/"+id,
		map[string]any{"updatedAt": stale, "note": "late edit"}, true)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT_DETECTED", body["code"])
}

func TestE2E_ConcurrentStatusChange_OneWins(t *testing.T) {
	ts := setupTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/api/admin/leads", map[string]any{
		"name": "Race", "email": uuid.NewString() + "@example.com", "message": "hi",
	}, true)
	require.Equal(t, http.StatusCreated, code, body)
	lead := dataOf(t, body)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := ts.statusOnly(http.MethodPost, "/api/admin/leads/"+lead["id"].(string)+"/status",
				map[string]any{"updatedAt": lead["updatedAt"], "status": "contacted"})
			mu.Lock()
			codes[c]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, codes[http.StatusOK])
	assert.Equal(t, 4, codes[http.StatusConflict])
}

func TestE2E_PublicIntake_DuplicateSuppressed(t *testing.T) {
	ts := setupTestServer(t)
	email := uuid.NewString() + "@example.com"
	form := map[string]any{"name": "Lior", "email": email, "message": "call me"}

	for range 2 {
		code, body := ts.do(t, http.MethodPost, "/api/public/leads", form, false)
		require.Equal(t, http.StatusOK, code, body)
	}

	var n int
	require.NoError(t, ts.Pool.QueryRow(t.Context(),
		`SELECT count(*) FROM leads WHERE email = $1`, email).Scan(&n))
	assert.Equal(t, 1, n)
}
