package rootkeystore

import (
	"context"
	"errors"
	"time"

	"github.com/lightninglabs/l402x/l402"
)

// RootKeySize is the length in bytes of a root key.
const RootKeySize = 32

// RootKey is the HMAC key used to mint and verify a single macaroon. It is
// never transmitted; only the macaroon it signs leaves the server.
type RootKey [RootKeySize]byte

// ErrNotFound is returned by GetRootKey when no record exists for a token
// ID. Per the protocol's validation algorithm, a caller must not reveal
// whether a token was never issued or its root key is missing, so callers
// outside this package should map ErrNotFound to the same rejection as a
// macaroon whose signature does not verify.
var ErrNotFound = errors.New("rootkeystore: no record for token id")

// ErrAlreadyExists is returned by InsertRootKey when the token ID collides
// with an existing record. Since token IDs are drawn from a 32-byte random
// space, this should only ever be observed under a broken random source.
var ErrAlreadyExists = errors.New("rootkeystore: token id already exists")

// Record is everything persisted for a single minted macaroon.
type Record struct {
	// TokenID is the record's primary key, embedded in the macaroon's
	// identifier.
	TokenID l402.TokenID

	// RootKey is the HMAC key the macaroon was signed with.
	RootKey RootKey

	// MacaroonBlob is the base64-encoded macaroon, kept for diagnostics
	// and potential re-issuance; it is not required to validate a
	// presented credential.
	MacaroonBlob string

	// CreatedAt is when the record was inserted.
	CreatedAt time.Time
}

// Store persists the mapping from a macaroon's token ID to the root key it
// was minted with. Both operations must be safe for concurrent callers, and
// insertion must be atomic: a macaroon handed to a client whose root key
// isn't yet durably stored can never later be validated.
type Store interface {
	// InsertRootKey durably stores a new record. TokenID must not
	// already exist in the store.
	InsertRootKey(ctx context.Context, rec Record) error

	// GetRootKey returns the root key stored for tokenID, or
	// ErrNotFound if no such record exists.
	GetRootKey(ctx context.Context,
		tokenID l402.TokenID) (RootKey, error)
}
