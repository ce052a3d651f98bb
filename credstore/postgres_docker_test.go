package credstore

import (
	"context"
	"testing"

	"github.com/lightninglabs/l402x/internal/test"
	"github.com/stretchr/testify/require"
)

func TestSQLStoreAgainstRealPostgres(t *testing.T) {
	dsn := test.NewPostgresDSN(t)

	store, err := NewPostgresStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	older := Credential{
		Location: "https://example.com/resource",
		Macaroon: "older-macaroon",
		Invoice:  "lnbc1...",
	}
	require.NoError(t, store.Store(ctx, older))

	newer := Credential{
		Location:    "https://example.com/resource",
		Macaroon:    "newer-macaroon",
		Invoice:     "lnbc2...",
		PreimageHex: "ab",
	}
	require.NoError(t, store.Store(ctx, newer))

	got, err := store.Get(ctx, "https://example.com/resource")
	require.NoError(t, err)
	require.Equal(t, "newer-macaroon", got.Macaroon)
	require.Equal(t, "ab", got.PreimageHex)
}
