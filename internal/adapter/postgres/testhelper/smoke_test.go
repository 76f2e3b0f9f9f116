//go:build integration

package testhelper

import (
	"context"
	"testing"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	lead := SeedLead(t, pool)

	var email string
	err := pool.QueryRow(
		context.Background(),
		`SELECT email FROM leads WHERE id = $1`,
		lead.ID,
	).Scan(&email)
	if err != nil {
		t.Fatalf("expected lead in DB, got error: %v", err)
	}

	if email != lead.Email {
		t.Fatalf("expected email %q, got %q", lead.Email, email)
	}
}
