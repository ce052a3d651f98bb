package credstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
)

// DefaultHubURL is the default base URL for the hosted credential broker.
const DefaultHubURL = "https://hub-5n97k.ondigitalocean.app/"

// HubClient is a Store that delegates both credential lookup and invoice
// settlement to a remote broker service instead of a local database. It
// doubles as a preimageprovider.Provider: the same account that already
// knows which credentials a client holds is the one that pays on its
// behalf, so a single round trip to the broker can serve both roles.
//
// Store is a no-op: the broker records a credential itself as a side effect
// of paying the invoice through GetPreimage, so there is nothing left for
// this client to persist.
type HubClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client

	// IgnoreExisting, when set, makes Get always report ErrNotFound,
	// forcing a fresh challenge/payment cycle even if the broker already
	// holds a usable credential for the location.
	IgnoreExisting bool
}

// A compile-time check that HubClient implements Store.
var _ Store = (*HubClient)(nil)

// NewHubClient constructs a HubClient. apiURL defaults to DefaultHubURL when
// empty.
func NewHubClient(apiKey, apiURL string) *HubClient {
	if apiURL == "" {
		apiURL = DefaultHubURL
	}

	return &HubClient{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Store is a no-op for HubClient; see the type doc comment.
//
// NOTE: This is part of the Store interface.
func (h *HubClient) Store(context.Context, Credential) error {
	return nil
}

type hubPurchase struct {
	Macaroon string `json:"macaroon"`
	Preimage string `json:"preimage"`
	Invoice  string `json:"invoice"`
}

// Get looks up the broker's most recent purchase for location.
//
// NOTE: This is part of the Store interface.
func (h *HubClient) Get(ctx context.Context, location string) (*Credential, error) {
	if h.IgnoreExisting {
		return nil, ErrNotFound
	}

	endpoint := fmt.Sprintf("%s/v0/l402/purchases/by-url?l402_url=%s",
		trimSlash(h.apiURL), url.QueryEscape(location))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	h.setHeaders(req)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credstore: hub request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credstore: hub returned status %d",
			resp.StatusCode)
	}

	var purchase hubPurchase
	if err := json.NewDecoder(resp.Body).Decode(&purchase); err != nil {
		return nil, fmt.Errorf("credstore: malformed hub response: %w",
			err)
	}

	return &Credential{
		Location:    location,
		Macaroon:    purchase.Macaroon,
		Invoice:     purchase.Invoice,
		PreimageHex: purchase.Preimage,
	}, nil
}

// GetPreimage pays invoice through the broker and returns the settled
// preimage.
//
// NOTE: This allows HubClient to satisfy preimageprovider.Provider.
func (h *HubClient) GetPreimage(ctx context.Context,
	paymentRequest string) (lntypes.Preimage, error) {

	body, err := json.Marshal(map[string]string{
		"invoice":     paymentRequest,
		"macaroon":    "",
		"l402_url":    "",
		"description": "Invoice payment for preimage retrieval",
	})
	if err != nil {
		return lntypes.Preimage{}, err
	}

	endpoint := fmt.Sprintf("%s/v0/l402/purchases/direct", trimSlash(h.apiURL))
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return lntypes.Preimage{}, err
	}
	h.setHeaders(req)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return lntypes.Preimage{}, fmt.Errorf("credstore: hub "+
			"payment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return lntypes.Preimage{}, fmt.Errorf("credstore: hub "+
			"payment failed with status %d", resp.StatusCode)
	}

	var purchase hubPurchase
	if err := json.NewDecoder(resp.Body).Decode(&purchase); err != nil {
		return lntypes.Preimage{}, fmt.Errorf("credstore: malformed "+
			"hub payment response: %w", err)
	}
	if purchase.Preimage == "" {
		return lntypes.Preimage{}, fmt.Errorf("credstore: hub " +
			"response missing preimage")
	}

	return lntypes.MakePreimageFromStr(purchase.Preimage)
}

func (h *HubClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Token "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

func trimSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}
