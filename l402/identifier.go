package l402

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/lightningnetwork/lnd/lntypes"
)

const (
	// LatestVersion is the highest currently known identifier version.
	LatestVersion Version = 0

	// TokenIDSize is the length in bytes of the randomly generated token
	// ID portion of an identifier.
	TokenIDSize = 32

	// IdentifierSize is the total length in bytes of an encoded
	// identifier: 2 bytes of version, 32 bytes of payment hash, 32 bytes
	// of token ID.
	IdentifierSize = 2 + lntypes.HashSize + TokenIDSize
)

// Version represents the version of an L402 identifier.
type Version uint16

// ErrUnknownVersion is returned when an identifier advertises a version this
// implementation does not understand.
var ErrUnknownVersion = errors.New("unknown l402 identifier version")

// ErrTrailingBytes is returned when an identifier buffer contains more than
// IdentifierSize bytes.
var ErrTrailingBytes = errors.New("l402 identifier: trailing bytes after identifier")

// TokenID is the random, 32-byte value that keys a macaroon's root key in
// the root-key store.
type TokenID [TokenIDSize]byte

// Identifier represents the information contained within the identifier of
// an L402's macaroon. It acts as the binding between a macaroon and the
// Lightning invoice that was created alongside it: the payment hash proves
// which invoice settles this identifier, and the token ID is the primary key
// into the root-key store that was used to mint its macaroon.
type Identifier struct {
	// Version is the version of the identifier.
	Version Version

	// PaymentHash is the payment hash of the Lightning invoice that this
	// identifier, and therefore the macaroon carrying it, is bound to.
	PaymentHash lntypes.Hash

	// TokenID is the randomly generated identifier of the root key that
	// was used to mint the macaroon carrying this identifier.
	TokenID TokenID
}

// EncodeIdentifier encodes the provided identifier into its big-endian
// binary wire format: {version, payment_hash, token_id}. Only
// LatestVersion is currently supported; encoding any other version fails.
func EncodeIdentifier(w io.Writer, id *Identifier) error {
	if id.Version != LatestVersion {
		return fmt.Errorf("%w: %d", ErrUnknownVersion, id.Version)
	}

	if err := binary.Write(w, binary.BigEndian, id.Version); err != nil {
		return err
	}
	if _, err := w.Write(id.PaymentHash[:]); err != nil {
		return err
	}
	if _, err := w.Write(id.TokenID[:]); err != nil {
		return err
	}

	return nil
}

// DecodeIdentifier decodes an Identifier from its big-endian binary wire
// format. It rejects any version other than LatestVersion.
func DecodeIdentifier(r io.Reader) (*Identifier, error) {
	var id Identifier

	if err := binary.Read(r, binary.BigEndian, &id.Version); err != nil {
		return nil, fmt.Errorf("unable to read version: %w", err)
	}
	if id.Version != LatestVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, id.Version)
	}

	if _, err := io.ReadFull(r, id.PaymentHash[:]); err != nil {
		return nil, fmt.Errorf("unable to read payment hash: %w", err)
	}
	if _, err := io.ReadFull(r, id.TokenID[:]); err != nil {
		return nil, fmt.Errorf("unable to read token id: %w", err)
	}

	// A well-formed identifier is exactly IdentifierSize bytes; anything
	// left over means the caller handed us a longer buffer than an
	// identifier can legitimately be.
	var extra [1]byte
	switch _, err := io.ReadFull(r, extra[:]); err {
	case io.EOF:
		// No trailing data, as expected.
	case nil:
		return nil, ErrTrailingBytes
	default:
		return nil, fmt.Errorf("unable to check for trailing "+
			"bytes: %w", err)
	}

	return &id, nil
}
