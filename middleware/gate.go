package middleware

import (
	"net/http"

	"github.com/lightninglabs/l402x/auth"
	"github.com/lightninglabs/l402x/l402"
)

// PriceFunc returns the price, in the smallest unit of currency, that a
// request must pay to be granted access.
type PriceFunc func(r *http.Request) (amount int64, currency string)

// Gate is the adapter contract between an Authenticator and a standard
// net/http handler: it reads Authorization, and on success forwards the
// request unmodified; on failure of any kind it mints a fresh challenge
// priced by price and responds 402, never 400 or 401 — the protocol
// recovers by paying, not by correcting a mistake. Any error minting the
// challenge itself becomes a 500, since there is no challenge left to offer
// the caller.
func Gate(authenticator auth.Authenticator, price PriceFunc,
	description string, next http.Handler) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := authenticator.ValidateL402Header(r.Context(), r.Header)
		if err == nil {
			next.ServeHTTP(w, r)
			return
		}

		log.Debugf("Denying request for %s: %v", r.URL.Path, err)

		amount, currency := price(r)
		macaroonB64, paymentRequest, mintErr := authenticator.NewChallenge(
			r.Context(), amount, currency, description,
		)
		if mintErr != nil {
			log.Errorf("Unable to mint challenge for %s: %v",
				r.URL.Path, mintErr)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		l402.SetChallengeHeader(w.Header(), macaroonB64, paymentRequest)
		w.WriteHeader(http.StatusPaymentRequired)
	})
}
