package credstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemStoreMostRecentWins(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	loc := "https://example.com/premium"
	older := Credential{
		Location:  loc,
		Macaroon:  "macaroon-1",
		Invoice:   "invoice-1",
		CreatedAt: time.Unix(1000, 0),
	}
	newer := Credential{
		Location:    loc,
		Macaroon:    "macaroon-2",
		Invoice:     "invoice-2",
		PreimageHex: "deadbeef",
		CreatedAt:   time.Unix(2000, 0),
	}

	require.NoError(t, store.Store(ctx, older))
	require.NoError(t, store.Store(ctx, newer))

	got, err := store.Get(ctx, loc)
	require.NoError(t, err)
	require.Equal(t, newer.Macaroon, got.Macaroon)
	require.True(t, got.Paid())
}

func TestMemStoreGetNotFound(t *testing.T) {
	store := NewMemStore()

	_, err := store.Get(context.Background(), "https://example.com/nothing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreStoreDoesNotOverwrite(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	loc := "https://example.com/thing"

	first := Credential{Location: loc, Macaroon: "m1", CreatedAt: time.Unix(1, 0)}
	second := Credential{Location: loc, Macaroon: "m2", CreatedAt: time.Unix(2, 0)}

	require.NoError(t, store.Store(ctx, first))
	require.NoError(t, store.Store(ctx, second))
	require.Len(t, store.byLoc[loc], 2)
}
