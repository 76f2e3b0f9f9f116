package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLimitBody(t *testing.T) {
	t.Parallel()

	var readErr error
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	LimitBody(16)(handler).ServeHTTP(httptest.NewRecorder(), req)
	if readErr == nil {
		t.Error("expected read error for oversized body")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small"))
	LimitBody(16)(handler).ServeHTTP(httptest.NewRecorder(), req)
	if readErr != nil {
		t.Errorf("unexpected read error: %v", readErr)
	}
}
