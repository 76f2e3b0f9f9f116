package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SeedLead inserts a new website lead with a unique email.
func SeedLead(t *testing.T, pool *pgxpool.Pool) *domain.Lead {
	t.Helper()

	suffix := uniqueSuffix()
	at := now()
	lead := &domain.Lead{
		ID:        uuid.New(),
		Name:      "Lead " + suffix,
		Email:     "lead-" + suffix + "@example.com",
		Message:   "hello from " + suffix,
		Source:    domain.LeadSourceWebsite,
		Status:    domain.LeadStatusNew,
		CreatedAt: at,
		UpdatedAt: at,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO leads (id, name, email, message, source, status, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8)`,
		lead.ID, lead.Name, lead.Email, lead.Message, string(lead.Source), string(lead.Status), lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: seed lead: %v", err)
	}
	return lead
}

// SeedClient inserts an active client with a unique email.
func SeedClient(t *testing.T, pool *pgxpool.Pool) *domain.Client {
	t.Helper()

	suffix := uniqueSuffix()
	at := now()
	client := &domain.Client{
		ID:        uuid.New(),
		Name:      "Client " + suffix,
		Email:     "client-" + suffix + "@example.com",
		Status:    domain.ClientStatusActive,
		CreatedAt: at,
		UpdatedAt: at,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO clients (id, name, email, status, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, '', $5, $6)`,
		client.ID, client.Name, client.Email, string(client.Status), client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: seed client: %v", err)
	}
	return client
}

// SeedEngagement inserts a new engagement for clientID.
func SeedEngagement(t *testing.T, pool *pgxpool.Pool, clientID uuid.UUID) *domain.Engagement {
	t.Helper()

	at := now()
	e := &domain.Engagement{
		ID:        uuid.New(),
		Title:     "Engagement " + uniqueSuffix(),
		ClientID:  clientID,
		Status:    domain.EngagementStatusNew,
		CreatedAt: at,
		UpdatedAt: at,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO engagements (id, title, client_id, status, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, '', $5, $6)`,
		e.ID, e.Title, e.ClientID, string(e.Status), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: seed engagement: %v", err)
	}
	return e
}
