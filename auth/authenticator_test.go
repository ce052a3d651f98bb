package auth

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"net/http"
	"testing"

	"github.com/lightninglabs/l402x/invoiceprovider"
	"github.com/lightninglabs/l402x/l402"
	"github.com/lightninglabs/l402x/preimageprovider"
	"github.com/lightninglabs/l402x/rootkeystore"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/stretchr/testify/require"
	"gopkg.in/macaroon.v2"
)

func newTestAuthenticator() (*L402Authenticator, *invoiceprovider.MemProvider,
	preimageprovider.Provider) {

	invoices := invoiceprovider.NewMemProvider()
	keys := rootkeystore.NewMemStore()
	authenticator := New("https://example.com", invoices, keys)
	preimages := preimageprovider.NewMemProvider(invoices)

	return authenticator, invoices, preimages
}

// settle runs a full mint -> pay -> present cycle and returns the
// Authorization header a well-behaved client would send.
func settle(t *testing.T, authenticator *L402Authenticator,
	preimages preimageprovider.Provider) http.Header {

	t.Helper()

	macaroonB64, paymentRequest, err := authenticator.NewChallenge(
		t.Context(), 1000, "BTC", "unit test resource",
	)
	require.NoError(t, err)

	preimage, err := preimages.GetPreimage(t.Context(), paymentRequest)
	require.NoError(t, err)

	header := http.Header{}
	l402.SetCredentialHeader(header, macaroonB64, preimage.String())

	return header
}

func TestValidateL402HeaderHappyPath(t *testing.T) {
	authenticator, _, preimages := newTestAuthenticator()
	header := settle(t, authenticator, preimages)

	err := authenticator.ValidateL402Header(t.Context(), header)
	require.NoError(t, err)
}

func TestValidateL402HeaderTamperedPreimage(t *testing.T) {
	authenticator, _, preimages := newTestAuthenticator()
	header := settle(t, authenticator, preimages)

	cred, err := l402.ParseCredential(header)
	require.NoError(t, err)

	tampered := http.Header{}
	l402.SetCredentialHeader(
		tampered, cred.Macaroon,
		"0000000000000000000000000000000000000000000000000000000000000000",
	)

	err = authenticator.ValidateL402Header(t.Context(), tampered)
	require.ErrorIs(t, err, ErrInvalidPreimage)
}

func TestValidateL402HeaderUnknownToken(t *testing.T) {
	authenticatorA, _, preimagesA := newTestAuthenticator()
	header := settle(t, authenticatorA, preimagesA)

	// A second, independent Authenticator has no record of the root key
	// minted by the first, so its macaroon cannot be verified.
	authenticatorB, _, _ := newTestAuthenticator()

	err := authenticatorB.ValidateL402Header(t.Context(), header)
	require.ErrorIs(t, err, ErrInvalidMacaroon)
}

func TestValidateL402HeaderMissingAuthorization(t *testing.T) {
	authenticator, _, _ := newTestAuthenticator()

	err := authenticator.ValidateL402Header(t.Context(), http.Header{})
	require.ErrorIs(t, err, ErrInvalidMacaroon)
}

func TestValidateL402HeaderUnsupportedVersion(t *testing.T) {
	authenticator, _, _ := newTestAuthenticator()

	var preimage lntypes.Preimage
	_, err := rand.Read(preimage[:])
	require.NoError(t, err)
	hash := preimage.Hash()

	var idBuf bytes.Buffer
	require.NoError(t, binary.Write(&idBuf, binary.BigEndian, uint16(1)))
	idBuf.Write(hash[:])
	idBuf.Write(make([]byte, l402.TokenIDSize))

	mac, err := macaroon.New(
		make([]byte, rootkeystore.RootKeySize), idBuf.Bytes(),
		"https://example.com", macaroon.LatestVersion,
	)
	require.NoError(t, err)
	macBytes, err := mac.MarshalBinary()
	require.NoError(t, err)

	header := http.Header{}
	l402.SetCredentialHeader(
		header, l402.EncodeMacaroonBytes(macBytes), preimage.String(),
	)

	err = authenticator.ValidateL402Header(t.Context(), header)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}
