package invoiceprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"google.golang.org/grpc"
)

const (
	// defaultLndCallTimeout bounds any single call made to the lnd
	// backend while creating an invoice.
	defaultLndCallTimeout = 10 * time.Second
)

// InvoiceClient is the subset of a full lnd client this provider depends on.
type InvoiceClient interface {
	// AddInvoice adds a new invoice to lnd.
	AddInvoice(ctx context.Context, in *lnrpc.Invoice,
		opts ...grpc.CallOption) (*lnrpc.AddInvoiceResponse, error)
}

// LndProvider is a Provider backed by a connection to an lnd node's invoice
// RPCs. It is the concrete, in-tree counterpart of the "invoice provider"
// external collaborator the protocol treats as out of scope; any backend
// satisfying the same contract (e.g. a different Lightning implementation or
// a hosted wallet API) can be substituted by implementing Provider directly.
type LndProvider struct {
	client      InvoiceClient
	callCtx     func() context.Context
	expiry      time.Duration
	callTimeout time.Duration
}

// A compile-time check that LndProvider implements Provider.
var _ Provider = (*LndProvider)(nil)

// NewLndProvider creates a new Provider backed by client. callCtx, if
// non-nil, is invoked to derive the base context for every RPC; it defaults
// to context.Background.
func NewLndProvider(client InvoiceClient, invoiceExpiry time.Duration,
	callCtx func() context.Context) *LndProvider {

	if callCtx == nil {
		callCtx = context.Background
	}
	if invoiceExpiry <= 0 {
		invoiceExpiry = time.Hour
	}

	return &LndProvider{
		client:      client,
		callCtx:     callCtx,
		expiry:      invoiceExpiry,
		callTimeout: defaultLndCallTimeout,
	}
}

// CreateInvoice creates a new invoice for amount units of currency via the
// lnd backend, returning its payment request and payment hash.
//
// NOTE: This is part of the Provider interface.
func (p *LndProvider) CreateInvoice(ctx context.Context, amount int64,
	currency, description string) (*Invoice, error) {

	// Only satoshi-denominated invoices are supported by lnd's AddInvoice
	// RPC; any other currency must be converted by the caller before
	// reaching this provider.
	if currency != "" && currency != "sat" && currency != "sats" &&
		currency != "SAT" {

		return nil, fmt.Errorf("%w: unsupported currency %q",
			ErrInvoiceProviderFailure, currency)
	}

	base := p.callCtx()
	if base == nil {
		base = ctx
	}
	ctxt, cancel := context.WithTimeout(base, p.callTimeout)
	defer cancel()

	resp, err := p.client.AddInvoice(ctxt, &lnrpc.Invoice{
		Value:  amount,
		Memo:   description,
		Expiry: int64(p.expiry.Seconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvoiceProviderFailure, err)
	}

	paymentHash, err := lntypes.MakeHash(resp.RHash)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse payment hash: %v",
			ErrInvoiceProviderFailure, err)
	}

	log.Debugf("Created invoice for %d with hash %v", amount, paymentHash)

	return &Invoice{
		PaymentRequest: resp.PaymentRequest,
		PaymentHash:    paymentHash,
	}, nil
}
