package credstore

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHubClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Token test-key", r.Header.Get("Authorization"))
		require.Equal(t, "/v0/l402/purchases/by-url", r.URL.Path)

		_ = json.NewEncoder(w).Encode(hubPurchase{
			Macaroon: "m",
			Preimage: "deadbeef",
			Invoice:  "lnbc1",
		})
	}))
	defer srv.Close()

	client := NewHubClient("test-key", srv.URL)
	cred, err := client.Get(t.Context(), "https://example.com/resource")
	require.NoError(t, err)
	require.Equal(t, "m", cred.Macaroon)
	require.True(t, cred.Paid())
}

func TestHubClientGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewHubClient("test-key", srv.URL)
	_, err := client.Get(t.Context(), "https://example.com/resource")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHubClientGetPreimage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v0/l402/purchases/direct", r.URL.Path)

		_ = json.NewEncoder(w).Encode(hubPurchase{
			Preimage: "0000000000000000000000000000000000000000000000000000000000000001",
		})
	}))
	defer srv.Close()

	client := NewHubClient("test-key", srv.URL)
	preimage, err := client.GetPreimage(t.Context(), "lnbc1")
	require.NoError(t, err)
	require.Equal(t, byte(0x01), preimage[31])
}

func TestHubClientIgnoreExisting(t *testing.T) {
	client := NewHubClient("test-key", "")
	client.IgnoreExisting = true

	_, err := client.Get(t.Context(), "https://example.com/resource")
	require.ErrorIs(t, err, ErrNotFound)
}
