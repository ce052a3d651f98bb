package preimageprovider

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/lntypes"
)

// LightningClient is the subset of lndclient.LightningClient this provider
// depends on to settle invoices.
type LightningClient interface {
	// PayInvoice pays the given invoice, returning a channel that
	// receives exactly one PaymentResult once the payment's outcome is
	// known.
	PayInvoice(ctx context.Context, invoice string, maxFee btcutil.Amount,
		outgoingChannel *uint64) chan lndclient.PaymentResult
}

// LndProvider is a Provider backed by a connection to an lnd node's payment
// RPCs. Like invoiceprovider.LndProvider, it is the in-tree reference
// implementation of an out-of-scope external collaborator; any Lightning
// wallet satisfying Provider may be substituted.
type LndProvider struct {
	client LightningClient
	maxFee btcutil.Amount
}

// A compile-time check that LndProvider implements Provider.
var _ Provider = (*LndProvider)(nil)

// NewLndProvider creates a new Provider backed by client, willing to pay up
// to maxFee in routing fees per payment.
func NewLndProvider(client LightningClient, maxFee btcutil.Amount) *LndProvider {
	return &LndProvider{client: client, maxFee: maxFee}
}

// GetPreimage pays paymentRequest via the lnd backend and blocks until the
// payment's outcome is known or ctx is done.
//
// NOTE: This is part of the Provider interface.
func (p *LndProvider) GetPreimage(ctx context.Context,
	paymentRequest string) (lntypes.Preimage, error) {

	done := p.client.PayInvoice(ctx, paymentRequest, p.maxFee, nil)

	select {
	case result := <-done:
		if result.Err != nil {
			return lntypes.Preimage{}, fmt.Errorf("%w: %v",
				ErrPaymentFailed, result.Err)
		}
		if result.Preimage == (lntypes.Preimage{}) {
			return lntypes.Preimage{}, fmt.Errorf(
				"%w: %s", ErrProviderProtocolError,
				paymentRequest,
			)
		}

		log.Debugf("Settled invoice with preimage %v",
			result.Preimage)

		return result.Preimage, nil

	case <-ctx.Done():
		return lntypes.Preimage{}, fmt.Errorf("%w: %v",
			ErrPaymentFailed, ctx.Err())
	}
}
