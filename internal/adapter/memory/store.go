// Package memory provides an in-memory implementation of the CRM entity
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

type state struct {
	leads       map[uuid.UUID]*domain.Lead
	clients     map[uuid.UUID]*domain.Client
	engagements map[uuid.UUID]*domain.Engagement
	activities  []*domain.Activity
}

func newState() *state {
	return &state{
		leads:       make(map[uuid.UUID]*domain.Lead),
		clients:     make(map[uuid.UUID]*domain.Client),
		engagements: make(map[uuid.UUID]*domain.Engagement),
	}
}

func (s *state) clone() *state {
	out := &state{
		leads:       make(map[uuid.UUID]*domain.Lead, len(s.leads)),
		clients:     make(map[uuid.UUID]*domain.Client, len(s.clients)),
		engagements: make(map[uuid.UUID]*domain.Engagement, len(s.engagements)),
		// Activity entries are immutable and shared between snapshots.
		activities: slices.Clone(s.activities),
	}
	for k, v := range s.leads {
		out.leads[k] = v.Clone()
	}
	for k, v := range s.clients {
		out.clients[k] = v.Clone()
	}
	for k, v := range s.engagements {
		out.engagements[k] = v.Clone()
	}
	return out
}

// Store keeps all CRM collections in memory. Transactions are serialized and
// run against a private copy of the committed state that replaces it only
// when the callback succeeds. A committed state is never modified, so reads
// outside a transaction see the last commit without waiting for an open one.
type Store struct {
	txMu  sync.Mutex
	mu    sync.RWMutex // guards the state pointer
	state *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

type txState struct {
	store *Store
	state *state
}

// RunInTx executes fn within a transaction. A call made with a context that
// already carries a transaction of this store joins it.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := s.txFromCtx(ctx); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &txState{store: s, state: s.committed().clone()}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = tx.state
	s.mu.Unlock()
	return nil
}

func (s *Store) committed() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// InTx reports whether ctx carries an open transaction of this store.
func (s *Store) InTx(ctx context.Context) bool {
	_, ok := s.txFromCtx(ctx)
	return ok
}

func (s *Store) txFromCtx(ctx context.Context) (*txState, bool) {
	tx, ok := ctx.Value(txKey{}).(*txState)
	if !ok || tx.store != s {
		return nil, false
	}
	return tx, true
}

// read runs fn against the transaction state when ctx carries one, otherwise
// against the last committed state.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx, ok := s.txFromCtx(ctx); ok {
		return fn(tx.state)
	}
	return fn(s.committed())
}

// write runs fn inside the caller's transaction, or inside a new one.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.RunInTx(ctx, func(ctx context.Context) error {
		tx, _ := s.txFromCtx(ctx)
		return fn(tx.state)
	})
}

// Leads returns the lead repository view of the store.
func (s *Store) Leads() *LeadRepo { return &LeadRepo{store: s} }

// Clients returns the client repository view of the store.
func (s *Store) Clients() *ClientRepo { return &ClientRepo{store: s} }

// Engagements returns the engagement repository view of the store.
func (s *Store) Engagements() *EngagementRepo { return &EngagementRepo{store: s} }

// Activities returns the activity repository view of the store.
func (s *Store) Activities() *ActivityRepo { return &ActivityRepo{store: s} }

// Ping satisfies the readiness check; the store is always available.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func page[T any](items []T, p domain.Page) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.Limit, len(items))
	return items[start:end]
}
