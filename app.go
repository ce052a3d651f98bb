// Package l402x wires together the protocol's building blocks —
// authenticator, pricer, rate limiter, and metrics exporter — into a single
// runnable HTTP server.
package l402x

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lightninglabs/l402x/auth"
	"github.com/lightninglabs/l402x/config"
	"github.com/lightninglabs/l402x/invoiceprovider"
	"github.com/lightninglabs/l402x/metrics"
	"github.com/lightninglabs/l402x/middleware"
	"github.com/lightninglabs/l402x/pricer"
	"github.com/lightninglabs/l402x/rootkeystore"
	"github.com/lightninglabs/lndclient"
)

// invoiceMacaroonName is the name of the invoice macaroon belonging to the
// target lnd node, used only to create invoices.
const invoiceMacaroonName = "invoice.macaroon"

// Server is a fully wired, runnable instance of a gated HTTP service: an
// Authenticator backed by a root-key store and invoice provider, fronted by
// the rate limiter and payment gate middleware.
type Server struct {
	cfg      *config.Config
	handler  http.Handler
	keys     rootkeystore.Store
	closers  []func() error
}

// New builds a Server from cfg, wrapping next as the protected resource.
func New(cfg *config.Config, next http.Handler) (*Server, error) {
	keys, closeKeys, err := openRootKeyStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("l402x: unable to open root key "+
			"store: %w", err)
	}

	invoices, err := openInvoiceProvider(cfg.Lnd)
	if err != nil {
		_ = closeKeys()
		return nil, fmt.Errorf("l402x: unable to open invoice "+
			"provider: %w", err)
	}

	authenticator := auth.New(cfg.Location, invoices, keys)

	price := pricer.NewDefaultPricer(cfg.DefaultPrice)
	var priceFn middleware.PriceFunc
	if cfg.FreeRequestsPerIP > 0 {
		freebie := pricer.NewFreebiePricer(
			price, pricer.FreeRequestCount(cfg.FreeRequestsPerIP),
		)
		priceFn = func(r *http.Request) (int64, string) {
			amount, err := freebie.GetPriceForRequest(
				r.Context(), r,
			)
			if err != nil {
				amount = cfg.DefaultPrice
			}
			return amount, "sat"
		}
	} else {
		priceFn = func(r *http.Request) (int64, string) {
			amount, err := price.GetPrice(r.Context(), r.URL.Path)
			if err != nil {
				amount = cfg.DefaultPrice
			}
			return amount, "sat"
		}
	}

	gated := middleware.Gate(authenticator, priceFn, cfg.Location, next)

	for i := range cfg.RateLimits {
		if err := cfg.RateLimits[i].Compile(); err != nil {
			_ = closeKeys()
			return nil, fmt.Errorf("l402x: invalid rate "+
				"limit: %w", err)
		}
	}
	handler := middleware.RateLimiter(cfg.RateLimits, gated)

	return &Server{
		cfg:     cfg,
		handler: handler,
		keys:    keys,
		closers: []func() error{closeKeys},
	}, nil
}

// Run starts the metrics exporter (if enabled) and blocks serving the gated
// HTTP handler until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := metrics.StartExporter(s.cfg.Prometheus); err != nil {
		return fmt.Errorf("l402x: unable to start metrics "+
			"exporter: %w", err)
	}

	httpServer := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.handler,
		IdleTimeout:  s.cfg.IdleTimeout,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Infof("Listening for client requests on %s",
			s.cfg.ListenAddr)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second,
		)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// Close releases any resources (database connections, etc.) opened by New.
func (s *Server) Close() error {
	var firstErr error
	for _, closer := range s.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openRootKeyStore(cfg *config.StoreConfig) (rootkeystore.Store,
	func() error, error) {

	switch cfg.Backend {
	case config.BackendSqlite:
		store, err := rootkeystore.NewSQLiteStore(cfg.SqliteDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.BackendPostgres:
		store, err := rootkeystore.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown root key store "+
			"backend %q", cfg.Backend)
	}
}

func openInvoiceProvider(cfg *config.LndConfig) (invoiceprovider.Provider,
	error) {

	if cfg.Host == "" {
		log.Warnf("No lnd host configured; using the in-memory " +
			"invoice provider, which settles every invoice " +
			"immediately and is unsuitable for production use")
		return invoiceprovider.NewMemProvider(), nil
	}

	client, err := lndclient.NewBasicClient(
		cfg.Host, cfg.TLSPath, cfg.MacDir, "mainnet",
		lndclient.MacFilename(invoiceMacaroonName),
	)
	if err != nil {
		return nil, err
	}

	return invoiceprovider.NewLndProvider(client, time.Hour, nil), nil
}
