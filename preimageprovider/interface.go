package preimageprovider

import (
	"context"
	"errors"

	"github.com/lightningnetwork/lnd/lntypes"
)

var (
	// ErrPaymentFailed is returned when a payment could not be completed.
	ErrPaymentFailed = errors.New("preimageprovider: payment failed")

	// ErrProviderProtocolError is returned when the provider's response
	// omits the preimage despite reporting success.
	ErrProviderProtocolError = errors.New(
		"preimageprovider: provider response missing preimage",
	)
)

// Provider pays a BOLT-11 invoice (or proves that it has already been paid)
// and returns the resulting preimage. It is the client-side counterpart of
// invoiceprovider.Provider. No retry is performed inside a Provider
// implementation; the caller (the client request engine) owns that
// decision.
type Provider interface {
	// GetPreimage pays paymentRequest and returns the 32-byte preimage
	// that proves settlement.
	GetPreimage(ctx context.Context,
		paymentRequest string) (lntypes.Preimage, error)
}
