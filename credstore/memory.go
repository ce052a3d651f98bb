package credstore

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/clock"
)

// MemStore is an in-memory Store, used by tests and single-process clients
// that don't need credentials to survive a restart.
type MemStore struct {
	mu    sync.Mutex
	byLoc map[string][]Credential
	clock clock.Clock
}

// A compile-time check that MemStore implements Store.
var _ Store = (*MemStore)(nil)

// NewMemStore creates a new, empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		byLoc: make(map[string][]Credential),
		clock: clock.NewDefaultClock(),
	}
}

// Store appends cred to the list of candidates known for its location.
//
// NOTE: This is part of the Store interface.
func (m *MemStore) Store(_ context.Context, cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = m.clock.Now().UTC()
	}
	m.byLoc[cred.Location] = append(m.byLoc[cred.Location], cred)

	return nil
}

// Get returns the credential with the greatest CreatedAt for location.
//
// NOTE: This is part of the Store interface.
func (m *MemStore) Get(_ context.Context, location string) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates, ok := m.byLoc[location]
	if !ok || len(candidates) == 0 {
		return nil, ErrNotFound
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.CreatedAt.After(best.CreatedAt) {
			best = c
		}
	}

	return &best, nil
}
