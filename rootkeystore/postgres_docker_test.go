package rootkeystore

import (
	"context"
	"testing"

	"github.com/lightninglabs/l402x/internal/test"
	"github.com/lightninglabs/l402x/l402"
	"github.com/stretchr/testify/require"
)

func TestPostgresStoreAgainstRealPostgres(t *testing.T) {
	dsn := test.NewPostgresDSN(t)

	store, err := NewPostgresStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var tokenID l402.TokenID
	copy(tokenID[:], []byte("postgres-docker-token-id-------"))

	var rootKey RootKey
	copy(rootKey[:], []byte("postgres-docker-root-key-------"))

	ctx := context.Background()
	rec := Record{
		TokenID:      tokenID,
		RootKey:      rootKey,
		MacaroonBlob: "fake-macaroon",
	}
	require.NoError(t, store.InsertRootKey(ctx, rec))
	require.ErrorIs(t, store.InsertRootKey(ctx, rec), ErrAlreadyExists)

	got, err := store.GetRootKey(ctx, tokenID)
	require.NoError(t, err)
	require.Equal(t, rootKey, got)
}
