package rootkeystore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lightninglabs/l402x/l402"
	"github.com/stretchr/testify/require"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "rootkeys.db")
	store, err := NewSQLiteStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestSQLStoreInsertAndGet(t *testing.T) {
	store := newTestSQLStore(t)

	var tokenID l402.TokenID
	copy(tokenID[:], []byte("sql-store-token-id--------------"))

	var rootKey RootKey
	copy(rootKey[:], []byte("sql-store-root-key--------------"))

	ctx := context.Background()
	err := store.InsertRootKey(ctx, Record{
		TokenID:      tokenID,
		RootKey:      rootKey,
		MacaroonBlob: "fake-macaroon",
	})
	require.NoError(t, err)

	got, err := store.GetRootKey(ctx, tokenID)
	require.NoError(t, err)
	require.Equal(t, rootKey, got)
}

func TestSQLStoreGetNotFound(t *testing.T) {
	store := newTestSQLStore(t)

	var tokenID l402.TokenID
	copy(tokenID[:], []byte("missing-sql-token---------------"))

	_, err := store.GetRootKey(context.Background(), tokenID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreRejectsDuplicateTokenID(t *testing.T) {
	store := newTestSQLStore(t)

	var tokenID l402.TokenID
	copy(tokenID[:], []byte("dup-sql-token-------------------"))

	ctx := context.Background()
	rec := Record{TokenID: tokenID}

	require.NoError(t, store.InsertRootKey(ctx, rec))
	require.Error(t, store.InsertRootKey(ctx, rec))
}
