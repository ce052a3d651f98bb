package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lightninglabs/l402x/auth"
	"github.com/lightninglabs/l402x/invoiceprovider"
	"github.com/lightninglabs/l402x/l402"
	"github.com/lightninglabs/l402x/preimageprovider"
	"github.com/lightninglabs/l402x/rootkeystore"
	"github.com/stretchr/testify/require"
)

func TestGateChallengesUnauthenticatedRequest(t *testing.T) {
	invoices := invoiceprovider.NewMemProvider()
	keys := rootkeystore.NewMemStore()
	authenticator := auth.New("https://example.com", invoices, keys)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be invoked without a credential")
	})

	price := func(*http.Request) (int64, string) { return 1000, "BTC" }
	handler := Gate(authenticator, price, "gated resource", next)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	challenge, err := l402.ParseChallenge(rec.Header())
	require.NoError(t, err)
	require.NotEmpty(t, challenge.Macaroon)
	require.NotEmpty(t, challenge.Invoice)
}

func TestGateForwardsAuthenticatedRequest(t *testing.T) {
	invoices := invoiceprovider.NewMemProvider()
	keys := rootkeystore.NewMemStore()
	authenticator := auth.New("https://example.com", invoices, keys)
	preimages := preimageprovider.NewMemProvider(invoices)

	macaroonB64, paymentRequest, err := authenticator.NewChallenge(
		t.Context(), 1000, "BTC", "gated resource",
	)
	require.NoError(t, err)

	preimage, err := preimages.GetPreimage(t.Context(), paymentRequest)
	require.NoError(t, err)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	price := func(*http.Request) (int64, string) { return 1000, "BTC" }
	handler := Gate(authenticator, price, "gated resource", next)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	l402.SetCredentialHeader(req.Header, macaroonB64, preimage.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}
