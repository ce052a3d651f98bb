package l402client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/lightninglabs/l402x/auth"
	"github.com/lightninglabs/l402x/credstore"
	"github.com/lightninglabs/l402x/invoiceprovider"
	"github.com/lightninglabs/l402x/l402"
	"github.com/lightninglabs/l402x/preimageprovider"
	"github.com/lightninglabs/l402x/rootkeystore"
	"github.com/stretchr/testify/require"
)

// newGatedServer returns an httptest.Server that challenges every request
// lacking a valid L402 credential and serves 200 "ok" to every request that
// presents one, counting how many times it had to mint a fresh challenge.
func newGatedServer(t *testing.T,
	authenticator *auth.L402Authenticator) (*httptest.Server, *int32) {

	t.Helper()

	var challenges int32
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			err := authenticator.ValidateL402Header(
				r.Context(), r.Header,
			)
			if err == nil {
				_, _ = w.Write([]byte("ok"))
				return
			}

			atomic.AddInt32(&challenges, 1)
			macaroonB64, paymentRequest, mintErr := authenticator.
				NewChallenge(r.Context(), 1000, "BTC", "gated resource")
			require.NoError(t, mintErr)

			l402.SetChallengeHeader(
				w.Header(), macaroonB64, paymentRequest,
			)
			w.WriteHeader(http.StatusPaymentRequired)
		},
	))
	t.Cleanup(srv.Close)

	return srv, &challenges
}

func TestRoundTripperPaysOnceAndReplays(t *testing.T) {
	defer leaktest.Check(t)()

	invoices := invoiceprovider.NewMemProvider()
	keys := rootkeystore.NewMemStore()
	authenticator := auth.New("https://example.com", invoices, keys)

	srv, challenges := newGatedServer(t, authenticator)

	preimages := preimageprovider.NewMemProvider(invoices)
	creds := credstore.NewMemStore()
	rt := New(preimages, creds)

	client := &http.Client{Transport: rt}

	resp, err := client.Get(srv.URL + "/resource")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
	require.Equal(t, int32(1), atomic.LoadInt32(challenges))

	// A second request to the same location must reuse the stored
	// credential rather than paying again.
	resp2, err := client.Get(srv.URL + "/resource")
	require.NoError(t, err)
	defer resp2.Body.Close()

	require.Equal(t, int32(1), atomic.LoadInt32(challenges))
}

func TestRoundTripperPaymentFailure(t *testing.T) {
	invoices := invoiceprovider.NewMemProvider()
	keys := rootkeystore.NewMemStore()
	authenticator := auth.New("https://example.com", invoices, keys)

	srv, _ := newGatedServer(t, authenticator)

	// A preimage provider that never resolves anything mimics a failed
	// payment.
	otherInvoices := invoiceprovider.NewMemProvider()
	preimages := preimageprovider.NewMemProvider(otherInvoices)
	creds := credstore.NewMemStore()
	rt := New(preimages, creds)

	client := &http.Client{Transport: rt}

	_, err := client.Get(srv.URL + "/resource")
	require.ErrorIs(t, err, ErrPaymentFailed)
}
