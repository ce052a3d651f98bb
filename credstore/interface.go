// Package credstore implements the client-side credential store: a
// keyed mapping from a location (the URL a credential was obtained for)
// to the most recently paid-for Credential at that location.
package credstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no credential has ever been stored for
// a location.
var ErrNotFound = errors.New("credstore: no credential for location")

// Credential is the client-side view of an L402 token. Preimage is empty
// until the invoice has been settled; once set, the credential is never
// mutated again.
type Credential struct {
	// Location is the URL this credential was obtained for and will be
	// replayed against.
	Location string

	// Macaroon is the opaque, base64-encoded macaroon from the
	// WWW-Authenticate challenge.
	Macaroon string

	// Invoice is the BOLT-11 payment request from the same challenge.
	Invoice string

	// PreimageHex is the 32-byte preimage, hex-encoded, or empty if the
	// invoice has not yet been settled.
	PreimageHex string

	// CreatedAt is when this credential was stored. Store implementations
	// resolve concurrent writes for the same location by keeping the
	// candidate with the greatest CreatedAt.
	CreatedAt time.Time
}

// Paid reports whether this credential has a settled preimage attached.
func (c Credential) Paid() bool {
	return c.PreimageHex != ""
}

// Store persists a client's credentials, keyed by location, with
// most-recent-wins freshness semantics: Get always returns the credential
// with the greatest CreatedAt for that location, never requiring deletion
// of stale entries.
type Store interface {
	// Store appends cred to the store. It never overwrites or deletes a
	// prior entry for the same location.
	Store(ctx context.Context, cred Credential) error

	// Get returns the most recently stored credential for location, or
	// ErrNotFound if none exists.
	Get(ctx context.Context, location string) (*Credential, error)
}
