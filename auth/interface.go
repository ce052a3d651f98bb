// Package auth implements the Authenticator: the server-side component that
// mints fresh L402 challenges and validates presented L402 credentials
// against a root-key store, without needing to separately track invoice
// settlement status at validation time.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// Errors returned by ValidateL402Header. Each corresponds to a rejection
// kind that must not leak which specific sub-check failed, so that an
// unknown token ID and a missing root key are indistinguishable to a
// caller probing for information.
var (
	// ErrUnsupportedVersion is returned when the macaroon identifier
	// advertises a version this Authenticator does not understand.
	ErrUnsupportedVersion = errors.New("auth: unsupported l402 version")

	// ErrInvalidPreimage is returned when the presented preimage does not
	// hash to the identifier's payment hash.
	ErrInvalidPreimage = errors.New("auth: invalid preimage")

	// ErrInvalidMacaroon is returned when the macaroon's root key cannot
	// be found, or its signature does not verify, or any of its caveats
	// are not satisfied. All three cases map to this single error.
	ErrInvalidMacaroon = errors.New("auth: invalid macaroon")
)

// Authenticator mints L402 challenges and validates L402 credentials.
type Authenticator interface {
	// NewChallenge creates and persists a fresh macaroon/invoice pair for
	// a request priced at amount (in currency's minor unit, e.g. sats),
	// returning the base64-encoded macaroon and the BOLT-11 payment
	// request the client must settle to redeem it.
	NewChallenge(ctx context.Context, amount int64, currency,
		description string) (macaroonB64 string, paymentRequest string,
		err error)

	// ValidateL402Header validates the L402 credential carried in the
	// Authorization field of header. A nil return means the request is
	// authenticated; any non-nil error is one of the sentinel errors
	// above (or a wrapped lower-level error for failures outside the
	// protocol's own checks, e.g. a store being unreachable).
	ValidateL402Header(ctx context.Context, header http.Header) error
}
