// Package l402client implements the client side of the protocol: a
// net/http.RoundTripper that transparently pays a 402 challenge the first
// time it is encountered for a given URL, then replays the request with the
// resulting credential, reusing that credential on every subsequent request
// to the same location without paying again.
package l402client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lightninglabs/l402x/credstore"
	"github.com/lightninglabs/l402x/l402"
	"github.com/lightninglabs/l402x/metrics"
	"github.com/lightninglabs/l402x/preimageprovider"
)

// ErrPaymentFailed is returned when a challenge cannot be settled: the
// preimage provider returned no usable preimage for the invoice.
var ErrPaymentFailed = errors.New("l402client: payment failed")

// DefaultTimeout bounds the whole lookup -> send -> pay -> store -> resend
// sequence for a single request, so a stuck payment provider cannot hang a
// caller indefinitely.
const DefaultTimeout = 30 * time.Second

// RoundTripper wraps an underlying http.RoundTripper, adding transparent
// L402 payment and credential replay. Requests to the same client are
// serialized by a single mutex: without it, two concurrent requests to the
// same URL could both observe "no credential", both pay, and race to store,
// with the most-recent-wins credential store then discarding one paid
// credential even though the user was charged twice.
type RoundTripper struct {
	// Transport is the underlying round tripper used to perform the
	// actual HTTP exchange. Defaults to http.DefaultTransport if nil.
	Transport http.RoundTripper

	// Timeout bounds a single request's full payment cycle. Defaults to
	// DefaultTimeout if zero.
	Timeout time.Duration

	preimages preimageprovider.Provider
	creds     credstore.Store

	mu sync.Mutex
}

// New creates a RoundTripper that pays challenges via preimages and caches
// settled credentials in creds.
func New(preimages preimageprovider.Provider,
	creds credstore.Store) *RoundTripper {

	return &RoundTripper{
		preimages: preimages,
		creds:     creds,
	}
}

// A compile-time check that RoundTripper implements http.RoundTripper.
var _ http.RoundTripper = (*RoundTripper)(nil)

func (rt *RoundTripper) transport() http.RoundTripper {
	if rt.Transport != nil {
		return rt.Transport
	}
	return http.DefaultTransport
}

func (rt *RoundTripper) timeout() time.Duration {
	if rt.Timeout != 0 {
		return rt.Timeout
	}
	return DefaultTimeout
}

// RoundTrip implements http.RoundTripper, executing the client request
// engine's canonical algorithm: look up a cached credential, send once,
// and if (and only if) the response is 402, pay the fresh challenge and
// resend exactly once more.
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ctx, cancel := context.WithTimeout(req.Context(), rt.timeout())
	defer cancel()
	req = req.WithContext(ctx)

	location := requestLocation(req)

	body, err := drainBody(req)
	if err != nil {
		return nil, err
	}

	attempt, err := cloneWithCredential(req, body, rt.creds, location)
	if err != nil {
		return nil, err
	}

	resp, err := rt.transport().RoundTrip(attempt)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}
	_ = resp.Body.Close()

	challenge, err := l402.ParseChallenge(resp.Header)
	if err != nil {
		return nil, fmt.Errorf("l402client: %w", err)
	}

	metrics.PaymentsAttempted.Inc()
	preimage, err := rt.preimages.GetPreimage(ctx, challenge.Invoice)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	metrics.PaymentsSettled.Inc()

	cred := credstore.Credential{
		Location:    location,
		Macaroon:    challenge.Macaroon,
		Invoice:     challenge.Invoice,
		PreimageHex: preimage.String(),
	}
	if err := rt.creds.Store(ctx, cred); err != nil {
		return nil, fmt.Errorf("l402client: unable to store "+
			"credential: %w", err)
	}

	log.Debugf("Settled l402 challenge for %s", location)

	retry, err := cloneWithCredential(req, body, rt.creds, location)
	if err != nil {
		return nil, err
	}

	return rt.transport().RoundTrip(retry)
}

// requestLocation is the credential store key for req: its URL with the
// query and fragment stripped, so that two requests differing only in query
// parameters share a credential.
func requestLocation(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// drainBody reads and restores req.Body so it can be replayed across the
// two attempts a payment cycle may need.
func drainBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("l402client: unable to read request "+
			"body: %w", err)
	}

	return body, nil
}

// cloneWithCredential returns a shallow clone of req with its body restored
// and, if a credential is already on file for location, an Authorization
// header attached.
func cloneWithCredential(req *http.Request, body []byte,
	creds credstore.Store, location string) (*http.Request, error) {

	clone := req.Clone(req.Context())
	clone.Body = newBodyReader(body)

	cred, err := creds.Get(req.Context(), location)
	switch {
	case err == nil:
		l402.SetCredentialHeader(
			clone.Header, cred.Macaroon, cred.PreimageHex,
		)
	case errors.Is(err, credstore.ErrNotFound):
		// No credential yet; send unauthenticated and expect a 402.
	default:
		return nil, fmt.Errorf("l402client: unable to look up "+
			"credential: %w", err)
	}

	return clone, nil
}
