package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"

	"github.com/lightninglabs/l402x/invoiceprovider"
	"github.com/lightninglabs/l402x/l402"
	"github.com/lightninglabs/l402x/metrics"
	"github.com/lightninglabs/l402x/rootkeystore"
	"github.com/lightningnetwork/lnd/lntypes"
	"gopkg.in/macaroon.v2"
)

// L402Authenticator is the reference Authenticator implementation: it mints
// macaroons directly with gopkg.in/macaroon.v2 (no third-party caveat
// delegation) and validates them purely from the root-key store, with no
// separate invoice-settlement lookup at validation time.
type L402Authenticator struct {
	location string
	invoices invoiceprovider.Provider
	keys     rootkeystore.Store
}

// A compile-time check that L402Authenticator satisfies Authenticator.
var _ Authenticator = (*L402Authenticator)(nil)

// New creates an Authenticator that mints macaroons scoped to location,
// sourcing invoices from invoices and persisting root keys in keys.
func New(location string, invoices invoiceprovider.Provider,
	keys rootkeystore.Store) *L402Authenticator {

	return &L402Authenticator{
		location: location,
		invoices: invoices,
		keys:     keys,
	}
}

// NewChallenge mints a fresh macaroon/invoice pair.
//
// NOTE: This is part of the Authenticator interface.
func (a *L402Authenticator) NewChallenge(ctx context.Context, amount int64,
	currency, description string) (string, string, error) {

	invoice, err := a.invoices.CreateInvoice(
		ctx, amount, currency, "L402 Challenge: "+description,
	)
	if err != nil {
		return "", "", fmt.Errorf("auth: unable to create invoice: %w",
			err)
	}

	var tokenID l402.TokenID
	if _, err := rand.Read(tokenID[:]); err != nil {
		return "", "", fmt.Errorf("auth: unable to generate token "+
			"id: %w", err)
	}

	var rootKey rootkeystore.RootKey
	if _, err := rand.Read(rootKey[:]); err != nil {
		return "", "", fmt.Errorf("auth: unable to generate root "+
			"key: %w", err)
	}

	id := &l402.Identifier{
		Version:     l402.LatestVersion,
		PaymentHash: invoice.PaymentHash,
		TokenID:     tokenID,
	}

	var idBuf bytes.Buffer
	if err := l402.EncodeIdentifier(&idBuf, id); err != nil {
		return "", "", fmt.Errorf("auth: unable to encode "+
			"identifier: %w", err)
	}

	mac, err := macaroon.New(
		rootKey[:], idBuf.Bytes(), a.location, macaroon.LatestVersion,
	)
	if err != nil {
		return "", "", fmt.Errorf("auth: unable to mint macaroon: %w",
			err)
	}

	macBytes, err := mac.MarshalBinary()
	if err != nil {
		return "", "", fmt.Errorf("auth: unable to serialize "+
			"macaroon: %w", err)
	}
	macaroonB64 := l402.EncodeMacaroonBytes(macBytes)

	// The root key must be durably persisted before the macaroon is
	// handed back to the caller; a macaroon a client can present but
	// whose root key never landed in the store could never be verified.
	err = a.keys.InsertRootKey(ctx, rootkeystore.Record{
		TokenID:      tokenID,
		RootKey:      rootKey,
		MacaroonBlob: macaroonB64,
	})
	if err != nil {
		return "", "", fmt.Errorf("auth: unable to persist root "+
			"key: %w", err)
	}

	log.Debugf("Minted new l402 challenge for token id %x", tokenID)
	metrics.ChallengesMinted.Inc()

	return macaroonB64, invoice.PaymentRequest, nil
}

// ValidateL402Header validates the L402 credential carried in header.
//
// NOTE: This is part of the Authenticator interface.
func (a *L402Authenticator) ValidateL402Header(ctx context.Context,
	header http.Header) error {

	err := a.validateL402Header(ctx, header)
	switch {
	case err == nil:
		metrics.ValidationsAccepted.Inc()
	case errors.Is(err, ErrUnsupportedVersion):
		metrics.ValidationsRejected.WithLabelValues("unsupported_version").Inc()
	case errors.Is(err, ErrInvalidPreimage):
		metrics.ValidationsRejected.WithLabelValues("invalid_preimage").Inc()
	case errors.Is(err, ErrInvalidMacaroon):
		metrics.ValidationsRejected.WithLabelValues("invalid_macaroon").Inc()
	default:
		metrics.ValidationsRejected.WithLabelValues("other").Inc()
	}

	return err
}

func (a *L402Authenticator) validateL402Header(ctx context.Context,
	header http.Header) error {

	cred, err := l402.ParseCredential(header)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMacaroon, err)
	}

	macBytes, err := l402.DecodeMacaroonBytes(cred.Macaroon)
	if err != nil {
		return fmt.Errorf("%w: malformed macaroon encoding",
			ErrInvalidMacaroon)
	}

	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return fmt.Errorf("%w: malformed macaroon", ErrInvalidMacaroon)
	}

	id, err := l402.DecodeIdentifier(bytes.NewReader(mac.Id()))
	if err != nil {
		if errors.Is(err, l402.ErrUnknownVersion) {
			return fmt.Errorf("%w", ErrUnsupportedVersion)
		}
		return fmt.Errorf("%w: %v", ErrInvalidMacaroon, err)
	}

	preimageBytes, err := l402.DecodePreimageHex(cred.PreimageHex)
	if err != nil || len(preimageBytes) != lntypes.HashSize {
		return fmt.Errorf("%w: malformed preimage", ErrInvalidPreimage)
	}

	gotHash := sha256.Sum256(preimageBytes)
	if !bytes.Equal(gotHash[:], id.PaymentHash[:]) {
		return fmt.Errorf("%w", ErrInvalidPreimage)
	}

	rootKey, err := a.keys.GetRootKey(ctx, id.TokenID)
	switch {
	case errors.Is(err, rootkeystore.ErrNotFound):
		// A missing record maps to the same error as a bad signature:
		// the caller must not learn whether the token id itself was
		// ever known.
		return fmt.Errorf("%w", ErrInvalidMacaroon)

	case err != nil:
		// Any other lookup failure is a storage problem, not a
		// protocol rejection, and is surfaced as such.
		return fmt.Errorf("auth: unable to fetch root key: %w", err)
	}

	if _, err := mac.VerifySignature(rootKey[:], nil); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMacaroon, err)
	}

	// v0 mints with no caveats, so there is nothing further to check;
	// this is the hook future caveat predicates would be threaded
	// through.
	return nil
}
