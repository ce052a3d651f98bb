package rootkeystore

import (
	"context"
	"testing"

	"github.com/lightninglabs/l402x/l402"
	"github.com/stretchr/testify/require"
)

func TestMemStoreInsertAndGet(t *testing.T) {
	store := NewMemStore()

	var tokenID l402.TokenID
	copy(tokenID[:], []byte("the-first-token-id-------------"))

	var rootKey RootKey
	copy(rootKey[:], []byte("super-secret-root-key----------"))

	rec := Record{
		TokenID:      tokenID,
		RootKey:      rootKey,
		MacaroonBlob: "fake-macaroon",
	}

	ctx := context.Background()
	require.NoError(t, store.InsertRootKey(ctx, rec))

	got, err := store.GetRootKey(ctx, tokenID)
	require.NoError(t, err)
	require.Equal(t, rootKey, got)
}

func TestMemStoreGetNotFound(t *testing.T) {
	store := NewMemStore()

	var tokenID l402.TokenID
	copy(tokenID[:], []byte("no-such-token-------------------"))

	_, err := store.GetRootKey(context.Background(), tokenID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreRejectsDuplicateTokenID(t *testing.T) {
	store := NewMemStore()

	var tokenID l402.TokenID
	copy(tokenID[:], []byte("duplicate-token-id--------------"))

	ctx := context.Background()
	rec := Record{TokenID: tokenID}

	require.NoError(t, store.InsertRootKey(ctx, rec))
	require.Error(t, store.InsertRootKey(ctx, rec))
}
