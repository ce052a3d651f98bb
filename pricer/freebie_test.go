package pricer

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreebiePricerGrantsFreeRequests(t *testing.T) {
	inner := NewDefaultPricer(1000)
	freebie := NewFreebiePricer(inner, 2)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.RemoteAddr = "203.0.113.5:1234"

	price, err := freebie.GetPriceForRequest(t.Context(), req)
	require.NoError(t, err)
	require.Equal(t, int64(0), price)

	price, err = freebie.GetPriceForRequest(t.Context(), req)
	require.NoError(t, err)
	require.Equal(t, int64(0), price)

	price, err = freebie.GetPriceForRequest(t.Context(), req)
	require.NoError(t, err)
	require.Equal(t, int64(1000), price)
}

func TestFreebiePricerMasksLastOctet(t *testing.T) {
	inner := NewDefaultPricer(1000)
	freebie := NewFreebiePricer(inner, 1)

	req1 := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req1.RemoteAddr = "203.0.113.5:1111"
	_, err := freebie.GetPriceForRequest(t.Context(), req1)
	require.NoError(t, err)

	// A different address in the same /24 has already exhausted the
	// masked bucket's single freebie.
	req2 := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req2.RemoteAddr = "203.0.113.200:2222"
	price, err := freebie.GetPriceForRequest(t.Context(), req2)
	require.NoError(t, err)
	require.Equal(t, int64(1000), price)
}
