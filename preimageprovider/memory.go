package preimageprovider

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/lntypes"
)

// RequestResolver looks up the preimage that settles a given payment
// request. A *invoiceprovider.MemProvider satisfies this (keyed by the
// synthetic payment request string it minted) so tests can pair the two
// mock providers without a real Lightning node or BOLT-11 codec round trip.
type RequestResolver interface {
	PreimageForRequest(paymentRequest string) (lntypes.Preimage, bool)
}

// MemProvider is an in-memory Provider for tests. It asks a RequestResolver
// (typically a paired invoiceprovider.MemProvider) for the preimage that
// settles a payment request, mimicking a successful Lightning payment
// without needing a real node.
type MemProvider struct {
	resolver RequestResolver
}

// A compile-time check that MemProvider implements Provider.
var _ Provider = (*MemProvider)(nil)

// NewMemProvider creates a new MemProvider that resolves preimages via
// resolver.
func NewMemProvider(resolver RequestResolver) *MemProvider {
	return &MemProvider{resolver: resolver}
}

// GetPreimage looks up and returns the preimage for paymentRequest.
//
// NOTE: This is part of the Provider interface.
func (m *MemProvider) GetPreimage(_ context.Context,
	paymentRequest string) (lntypes.Preimage, error) {

	preimage, ok := m.resolver.PreimageForRequest(paymentRequest)
	if !ok {
		return lntypes.Preimage{}, fmt.Errorf("%w: no preimage known "+
			"for invoice %q", ErrPaymentFailed, paymentRequest)
	}

	return preimage, nil
}
