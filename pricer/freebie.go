package pricer

import (
	"context"
	"net"
	"net/http"
)

var defaultIPMask = net.IPv4Mask(0xff, 0xff, 0xff, 0x00)

// FreeRequestCount is the number of free passes a masked IP address is
// granted before FreebiePricer starts charging it.
type FreeRequestCount uint16

// FreebieCounter tracks how many free requests a masked IP address has
// already used.
type FreebieCounter interface {
	// CanPass reports whether ip still has a free request available.
	CanPass(ip net.IP) bool

	// TallyFreebie records that ip has just used a free request.
	TallyFreebie(ip net.IP)
}

// memFreebieCounter is an in-memory FreebieCounter, masking the last byte of
// an IP address so a single address doesn't get its own unlimited bucket by
// rotating through a /24.
type memFreebieCounter struct {
	limit   FreeRequestCount
	counter map[string]FreeRequestCount
}

// NewMemFreebieCounter creates a FreebieCounter that allows limit free
// requests per masked IP address.
func NewMemFreebieCounter(limit FreeRequestCount) FreebieCounter {
	return &memFreebieCounter{
		limit:   limit,
		counter: make(map[string]FreeRequestCount),
	}
}

func (m *memFreebieCounter) key(ip net.IP) string {
	return ip.Mask(defaultIPMask).String()
}

func (m *memFreebieCounter) CanPass(ip net.IP) bool {
	return m.counter[m.key(ip)] < m.limit
}

func (m *memFreebieCounter) TallyFreebie(ip net.IP) {
	m.counter[m.key(ip)]++
}

// FreebiePricer wraps a Pricer, granting each masked IP address a fixed
// number of free requests before it starts being charged Pricer's normal
// price. It is meant to gate trial usage of a resource without requiring a
// separate free tier in the resource's own logic.
type FreebiePricer struct {
	inner   Pricer
	counter FreebieCounter
}

// A compile-time check that FreebiePricer implements Pricer.
var _ Pricer = (*FreebiePricer)(nil)

// NewFreebiePricer wraps inner, granting limit free requests per masked IP
// before falling back to inner's price.
func NewFreebiePricer(inner Pricer, limit FreeRequestCount) *FreebiePricer {
	return &FreebiePricer{
		inner:   inner,
		counter: NewMemFreebieCounter(limit),
	}
}

// GetPrice returns the wrapped Pricer's price for path. It has no access to
// the caller's source IP, so it grants no freebies; see GetPriceForRequest.
//
// NOTE: This is part of the Pricer interface.
func (f *FreebiePricer) GetPrice(ctx context.Context, path string) (int64, error) {
	return f.inner.GetPrice(ctx, path)
}

// GetPriceForRequest is the freebie-aware entry point middleware.Gate's
// PriceFunc should call instead of GetPrice, since only a *http.Request
// carries the caller's source IP.
func (f *FreebiePricer) GetPriceForRequest(ctx context.Context,
	r *http.Request) (int64, error) {

	ip := sourceIP(r)
	if ip != nil && f.counter.CanPass(ip) {
		f.counter.TallyFreebie(ip)
		return 0, nil
	}

	return f.inner.GetPrice(ctx, r.URL.Path)
}

// Close is part of the Pricer interface.
func (f *FreebiePricer) Close() error {
	return f.inner.Close()
}

func sourceIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
