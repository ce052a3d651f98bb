package middleware

import (
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/lightninglabs/l402x/l402"
	"golang.org/x/time/rate"
)

// RateLimit defines a per-path token-bucket rate limit, keyed further by the
// requester's L402 macaroon when one is presented, so that one paying
// client's traffic cannot exhaust another's budget for the same path.
//
// Example YAML:
//
//	ratelimits:
//	  - pathregex: '^/v1/download.*$'
//	    requests: 5
//	    per: 1s
//	    burst: 5
type RateLimit struct {
	PathRegexp string        `long:"pathregex" description:"Regular expression to match the path of the URL against for rate limiting" yaml:"pathregex"`
	Requests   int           `long:"requests" description:"Number of requests allowed per time window" yaml:"requests"`
	Per        time.Duration `long:"per" description:"Size of the time window (e.g., 1s, 1m)" yaml:"per"`
	Burst      int           `long:"burst" description:"Burst size allowed in addition to steady rate" yaml:"burst"`

	compiled *compiledRateLimit
}

type compiledRateLimit struct {
	sync.Mutex

	re      *regexp.Regexp
	limiter *rate.Limiter
	limit   rate.Limit
	burst   int

	perKey map[string]*rate.Limiter
}

// Compile prepares the regular expression and limiter state for r. It must
// be called once before r is passed to RateLimiter.
func (r *RateLimit) Compile() error {
	per := r.Per
	if per == 0 {
		per = time.Second
	}
	requests := r.Requests
	if requests <= 0 {
		requests = 1
	}
	burst := r.Burst
	if burst <= 0 {
		burst = requests
	}

	re, err := regexp.Compile(r.PathRegexp)
	if err != nil {
		return err
	}

	limit := rate.Every(per / time.Duration(requests))
	r.compiled = &compiledRateLimit{
		re:      re,
		limiter: rate.NewLimiter(limit, burst),
		limit:   limit,
		burst:   burst,
		perKey:  make(map[string]*rate.Limiter),
	}

	return nil
}

func (c *compiledRateLimit) allowFor(key string) bool {
	if key == "" {
		return c.limiter.Allow()
	}
	return c.getOrCreate(key).Allow()
}

func (c *compiledRateLimit) getOrCreate(key string) *rate.Limiter {
	c.Lock()
	defer c.Unlock()

	if l, ok := c.perKey[key]; ok {
		return l
	}

	l := rate.NewLimiter(c.limit, c.burst)
	c.perKey[key] = l

	return l
}

// RateLimiter wraps next with the first matching compiled RateLimit for each
// request's path, rejecting requests that exceed the limit with 429.
func RateLimiter(limits []RateLimit, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := range limits {
			c := limits[i].compiled
			if c == nil || !c.re.MatchString(r.URL.Path) {
				continue
			}

			key := macaroonKey(r)
			if !c.allowFor(key) {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}

			break
		}

		next.ServeHTTP(w, r)
	})
}

// macaroonKey extracts the opaque macaroon string from an L402 Authorization
// header, if present, so distinct paying clients get distinct buckets.
func macaroonKey(r *http.Request) string {
	cred, err := l402.ParseCredential(r.Header)
	if err != nil {
		return ""
	}
	return cred.Macaroon
}
