package rootkeystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/lightninglabs/l402x/l402"
	"github.com/lightningnetwork/lnd/clock"
)

// MemStore is an in-memory Store, used for tests and single-process
// deployments that don't need durability across restarts.
type MemStore struct {
	mu      sync.RWMutex
	records map[l402.TokenID]Record
	clock   clock.Clock
}

// A compile-time check that MemStore implements Store.
var _ Store = (*MemStore)(nil)

// NewMemStore creates a new, empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[l402.TokenID]Record),
		clock:   clock.NewDefaultClock(),
	}
}

// InsertRootKey stores rec, keyed by rec.TokenID.
//
// NOTE: This is part of the Store interface.
func (m *MemStore) InsertRootKey(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.TokenID]; ok {
		return fmt.Errorf("%w: %x", ErrAlreadyExists, rec.TokenID)
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.clock.Now().UTC()
	}
	m.records[rec.TokenID] = rec

	return nil
}

// GetRootKey returns the root key stored for tokenID.
//
// NOTE: This is part of the Store interface.
func (m *MemStore) GetRootKey(_ context.Context,
	tokenID l402.TokenID) (RootKey, error) {

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[tokenID]
	if !ok {
		return RootKey{}, ErrNotFound
	}

	return rec.RootKey, nil
}
