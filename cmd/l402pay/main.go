// l402pay is a minimal HTTP client that transparently pays L402 challenges,
// demonstrating the client request engine end to end against a live server.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/lightninglabs/l402x/credstore"
	"github.com/lightninglabs/l402x/l402client"
	"github.com/lightninglabs/l402x/preimageprovider"
	"github.com/lightninglabs/lndclient"
)

type cliOptions struct {
	URL string `long:"url" description:"the URL to request" required:"true"`

	LndHost string `long:"lndhost" description:"host:port of the lnd node used to settle invoices"`
	TLSPath string `long:"tlspath" description:"path to lnd's tls.cert"`
	MacDir  string `long:"macdir" description:"directory containing lnd's macaroons"`
	MaxFeeSats int64 `long:"maxfeesats" description:"maximum routing fee, in satoshis, willing to be paid"`

	HubAPIKey string `long:"hubapikey" description:"API key for a hosted L402 purchase hub, used instead of a direct lnd connection"`
	HubURL    string `long:"huburl" description:"base URL of the hosted L402 purchase hub"`

	CredsPostgresDSN string `long:"credspostgresdsn" description:"postgres DSN for persisting settled credentials across runs"`
}

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
	var opts cliOptions
	if _, err := flags.Parse(&opts); err != nil {
		return err
	}

	preimages, err := buildPreimageProvider(&opts)
	if err != nil {
		return err
	}

	creds, closeCreds, err := buildCredentialStore(&opts)
	if err != nil {
		return err
	}
	defer closeCreds()

	client := &http.Client{
		Transport: l402client.New(preimages, creds),
		Timeout:   45 * time.Second,
	}

	ctx, cancel := context.WithTimeout(
		context.Background(), l402client.DefaultTimeout,
	)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	fmt.Printf("status: %s\n%s\n", resp.Status, body)

	return nil
}

func buildPreimageProvider(opts *cliOptions) (preimageprovider.Provider,
	error) {

	if opts.HubAPIKey != "" {
		huburl := opts.HubURL
		if huburl == "" {
			huburl = credstore.DefaultHubURL
		}
		return credstore.NewHubClient(opts.HubAPIKey, huburl), nil
	}

	if opts.LndHost == "" {
		return nil, fmt.Errorf("either --lndhost or --hubapikey must " +
			"be provided to settle invoices")
	}

	services, err := lndclient.NewLndServices(&lndclient.LndServicesConfig{
		LndAddress:  opts.LndHost,
		Network:     lndclient.NetworkMainnet,
		TLSPath:     opts.TLSPath,
		MacaroonDir: opts.MacDir,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to lnd: %w", err)
	}

	maxFee := btcutil.Amount(opts.MaxFeeSats)
	if maxFee == 0 {
		maxFee = btcutil.Amount(1000)
	}

	return preimageprovider.NewLndProvider(services.Client, maxFee), nil
}

func buildCredentialStore(opts *cliOptions) (credstore.Store,
	func() error, error) {

	if opts.CredsPostgresDSN != "" {
		store, err := credstore.NewPostgresStore(opts.CredsPostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}

	return credstore.NewMemStore(), func() error { return nil }, nil
}
