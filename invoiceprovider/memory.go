package invoiceprovider

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/lightningnetwork/lnd/lntypes"
)

// MemProvider is an in-memory Provider used for tests and local
// experimentation. It mints a random preimage for every invoice it creates
// and exposes that preimage so a paired preimageprovider.MemProvider (or a
// test) can "pay" the invoice deterministically.
type MemProvider struct {
	mu        sync.Mutex
	preimages map[lntypes.Hash]lntypes.Preimage
	byRequest map[string]lntypes.Preimage
}

// A compile-time check that MemProvider implements Provider.
var _ Provider = (*MemProvider)(nil)

// NewMemProvider creates a new, empty MemProvider.
func NewMemProvider() *MemProvider {
	return &MemProvider{
		preimages: make(map[lntypes.Hash]lntypes.Preimage),
		byRequest: make(map[string]lntypes.Preimage),
	}
}

// CreateInvoice mints a fresh random preimage, derives its payment hash, and
// returns a synthetic payment request string encoding the amount and hash.
// It is meant for tests, not for production use.
//
// NOTE: This is part of the Provider interface.
func (m *MemProvider) CreateInvoice(_ context.Context, amount int64,
	_, description string) (*Invoice, error) {

	var preimage lntypes.Preimage
	if _, err := rand.Read(preimage[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvoiceProviderFailure, err)
	}
	hash := lntypes.Hash(sha256.Sum256(preimage[:]))

	paymentRequest := fmt.Sprintf(
		"lnmock1%d%x-%s", amount, hash[:8], description,
	)

	m.mu.Lock()
	m.preimages[hash] = preimage
	m.byRequest[paymentRequest] = preimage
	m.mu.Unlock()

	return &Invoice{
		PaymentRequest: paymentRequest,
		PaymentHash:    hash,
	}, nil
}

// PreimageFor returns the preimage minted for hash, if any. This is a test
// hook, not part of the Provider interface, that lets a paired
// preimageprovider.MemProvider resolve payment without a real Lightning
// node.
func (m *MemProvider) PreimageFor(hash lntypes.Hash) (lntypes.Preimage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	preimage, ok := m.preimages[hash]
	return preimage, ok
}

// PreimageForRequest returns the preimage minted for paymentRequest, if any.
// It satisfies preimageprovider.RequestResolver.
func (m *MemProvider) PreimageForRequest(
	paymentRequest string) (lntypes.Preimage, bool) {

	m.mu.Lock()
	defer m.mu.Unlock()

	preimage, ok := m.byRequest[paymentRequest]
	return preimage, ok
}
