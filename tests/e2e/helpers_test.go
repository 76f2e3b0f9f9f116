//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres/testhelper"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/app"
	authpkg "github.com/ark-dvd/wdi-ltd-israel-sub001/internal/auth"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/config"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/metrics"
)

const jwtSecret = "e2e-secret-at-least-32-chars-long!!"

// testServer wraps the full-stack HTTP server backed by PostgreSQL.
type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	token  string
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))

	cfg := &config.Config{
		Server: config.ServerConfig{MaxBodyBytes: 1 << 20},
		Store:  config.StoreConfig{Driver: config.StoreDriverPostgres},
		Auth: config.AuthConfig{
			JWTSecret:      jwtSecret,
			JWTIssuer:      "e2e",
			AccessTokenTTL: 15 * time.Minute,
		},
		CRM: config.CRMConfig{
			DuplicateWindow: 5 * time.Minute,
			BulkMaxRecords:  20,
			HistoryLimit:    50,
			FeedLimit:       30,
		},
		CORS: config.CORSConfig{AllowedOrigins: "*"},
	}

	// The pool is closed by testhelper; Stores.Close is not called here.
	handler := app.NewHandler(cfg, app.NewPostgresStores(pool), clockwork.NewRealClock(), metrics.New(), logger)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	token, err := authpkg.NewJWTManager(jwtSecret, "e2e", 15*time.Minute).
		GenerateAccessToken("e2e-operator@wdi.co.il", authpkg.RoleOperator)
	require.NoError(t, err)

	return &testServer{URL: srv.URL, Client: srv.Client(), Pool: pool, token: token}
}

// do sends body as JSON and decodes the JSON response. authed attaches the
// operator token.
func (ts *testServer) do(t *testing.T, method, path string, body any, authed bool) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func dataOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data object, got %v", body)
	return d
}

// statusOnly sends an authed JSON request and reports only the status code.
// It is safe to call from goroutines; transport errors return 0.
func (ts *testServer) statusOnly(method, path string, body any) int {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.token)

	resp, err := ts.Client.Do(req)
	if err != nil {
		return 0
	}
	resp.Body.Close()
	return resp.StatusCode
}
