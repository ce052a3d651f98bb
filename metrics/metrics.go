// Package metrics exports Prometheus counters for the protocol's core
// events: challenges minted, credential validations, and client-side
// payment attempts.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChallengesMinted tracks the number of fresh L402 challenges minted
	// by the Authenticator.
	ChallengesMinted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "l402",
		Name:      "challenges_minted_total",
		Help:      "Number of L402 challenges minted",
	})

	// ValidationsAccepted tracks the number of presented credentials that
	// validated successfully.
	ValidationsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "l402",
		Name:      "validations_accepted_total",
		Help:      "Number of L402 credentials that validated successfully",
	})

	// ValidationsRejected tracks the number of presented credentials that
	// failed validation, labeled by the rejection reason.
	ValidationsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "l402",
		Name:      "validations_rejected_total",
		Help:      "Number of L402 credentials rejected, by reason",
	}, []string{"reason"})

	// PaymentsAttempted tracks the number of invoices the client request
	// engine has attempted to settle.
	PaymentsAttempted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "l402",
		Name:      "payments_attempted_total",
		Help:      "Number of invoice payments attempted by the client",
	})

	// PaymentsSettled tracks the number of invoices the client request
	// engine successfully settled.
	PaymentsSettled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "l402",
		Name:      "payments_settled_total",
		Help:      "Number of invoice payments settled by the client",
	})
)

// Config is the set of configuration data that specifies if Prometheus
// metric exporting is activated, and if so the listening address of the
// Prometheus server.
type Config struct {
	// Enabled, if true, then Prometheus metrics will be exported.
	Enabled bool `long:"enabled" description:"if true prometheus metrics will be exported"`

	// ListenAddr is the listening address that we should use to allow the
	// main Prometheus server to scrape our metrics.
	ListenAddr string `long:"listenaddr" description:"the interface we should listen on for prometheus"`
}

// StartExporter registers all relevant metrics with the Prometheus library,
// then launches the HTTP server that Prometheus will hit to scrape them.
func StartExporter(cfg *Config) error {
	if !cfg.Enabled {
		return nil
	}

	prometheus.MustRegister(
		ChallengesMinted, ValidationsAccepted, ValidationsRejected,
		PaymentsAttempted, PaymentsSettled,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		fmt.Println(http.ListenAndServe(cfg.ListenAddr, mux))
	}()

	return nil
}
