// l402gated runs a reference L402-gated reverse proxy: it fronts a single
// upstream resource with the protocol's payment-authentication gate.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/lightninglabs/l402x"
	"github.com/lightninglabs/l402x/config"
)

func main() {
	if err := run(); err != nil {
		if flagErr, ok := err.(*flags.Error); ok &&
			flagErr.Type == flags.ErrHelp {

			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	if err := l402x.SetupLogging(cfg.LogDir, cfg.DebugLevel); err != nil {
		return fmt.Errorf("unable to set up logging: %w", err)
	}

	upstream, err := upstreamHandler(cfg)
	if err != nil {
		return err
	}

	server, err := l402x.New(cfg, upstream)
	if err != nil {
		return err
	}
	defer server.Close()

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	return server.Run(ctx)
}

// upstreamHandler builds the handler the gate protects. With no Location
// configured as a reachable URL, the demo upstream simply echoes a success
// response so the binary is runnable standalone.
func upstreamHandler(cfg *config.Config) (http.Handler, error) {
	u, err := url.Parse(cfg.Location)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return http.HandlerFunc(func(w http.ResponseWriter,
			_ *http.Request) {

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("payment accepted\n"))
		}), nil
	}

	return httputil.NewSingleHostReverseProxy(u), nil
}
