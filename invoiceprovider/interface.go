package invoiceprovider

import (
	"context"
	"errors"

	"github.com/lightningnetwork/lnd/lntypes"
)

// ErrInvoiceProviderFailure wraps any network, auth, or parsing failure
// surfaced by a Provider, as required by the protocol's InvoiceProviderError
// error kind.
var ErrInvoiceProviderFailure = errors.New("invoiceprovider: provider failed")

// Invoice is the result of successfully creating a new Lightning invoice.
type Invoice struct {
	// PaymentRequest is the BOLT-11 payment request string.
	PaymentRequest string

	// PaymentHash is the hash committed to by PaymentRequest.
	PaymentHash lntypes.Hash
}

// Provider creates Lightning invoices on behalf of the Authenticator. It is
// the server-side counterpart of preimageprovider.Provider and is the only
// source of payment hashes that get bound into minted macaroon identifiers.
//
// Implementations must be safe for concurrent use; the Authenticator may
// mint many challenges concurrently.
type Provider interface {
	// CreateInvoice creates a new invoice for amount units of currency,
	// carrying description as its memo. The returned payment hash is the
	// 32-byte hash committed to by the returned payment request.
	CreateInvoice(ctx context.Context, amount int64, currency,
		description string) (*Invoice, error)
}
