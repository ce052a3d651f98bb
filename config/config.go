// Package config defines the on-disk and command-line configuration shape
// for the l402-gated server and its companion client tooling.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/goccy/go-yaml"
	"github.com/jessevdk/go-flags"
	"github.com/lightninglabs/l402x/metrics"
	"github.com/lightninglabs/l402x/middleware"
	"github.com/lightningnetwork/lnd/build"
)

var (
	defaultDataDir        = btcutil.AppDataDir("l402gated", false)
	defaultConfigFilename = "l402gated.yaml"
	defaultLogLevel       = "info"

	defaultSqliteFileName = "rootkeys.db"
	defaultSqlitePath     = filepath.Join(defaultDataDir, defaultSqliteFileName)
)

const (
	defaultIdleTimeout  = 2 * time.Minute
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second

	// BackendSqlite stores root keys in a local pure-Go sqlite database.
	BackendSqlite = "sqlite"

	// BackendPostgres stores root keys in Postgres.
	BackendPostgres = "postgres"
)

// LndConfig describes how to reach the lnd node backing the server's invoice
// provider.
type LndConfig struct {
	Host    string `long:"host" description:"host:port of the lnd gRPC interface"`
	TLSPath string `long:"tlspath" description:"path to lnd's tls.cert"`
	MacDir  string `long:"macdir" description:"directory containing lnd's macaroons"`
}

// StoreConfig selects and configures the root-key store backend.
type StoreConfig struct {
	Backend string `long:"backend" description:"root key store backend" choice:"sqlite" choice:"postgres"`

	SqliteDSN string `long:"sqlitedsn" description:"path to the sqlite database file"`

	PostgresDSN string `long:"postgresdsn" description:"postgres connection string"`
}

// Config is the top-level configuration for the l402gated server binary.
type Config struct {
	// ListenAddr is the address the gated HTTP server listens on.
	ListenAddr string `long:"listenaddr" description:"the interface to listen on for client requests"`

	// Location is the string embedded into every minted macaroon, and
	// the URL clients will present it back against.
	Location string `long:"location" description:"the location string embedded into minted macaroons"`

	// DefaultPrice is the price, in satoshis, charged for a resource
	// that doesn't have a more specific price configured.
	DefaultPrice int64 `long:"defaultprice" description:"default price in satoshis for a gated resource"`

	// FreeRequestsPerIP, if greater than zero, grants each masked
	// /24 IP range that many free requests before DefaultPrice applies.
	FreeRequestsPerIP uint16 `long:"freerequestsperip" description:"number of free requests granted per masked IP range before charging"`

	Lnd *LndConfig `group:"lnd" namespace:"lnd"`

	Store *StoreConfig `group:"store" namespace:"store"`

	Prometheus *metrics.Config `group:"prometheus" namespace:"prometheus"`

	RateLimits []middleware.RateLimit `long:"ratelimit" description:"a path-scoped rate limit; may be given multiple times"`

	// DebugLevel sets the log level for the binary and its subsystems,
	// either uniformly or per-subsystem.
	DebugLevel string `long:"debuglevel" description:"debug level for the application and its subsystems"`

	ConfigFile string `long:"configfile" description:"path to an alternative config file"`

	// LogDir is the directory the rotating log file is written to.
	LogDir string `long:"logdir" description:"directory to write the log file in"`

	IdleTimeout  time.Duration `long:"idletimeout" description:"maximum amount of time a connection may be idle"`
	ReadTimeout  time.Duration `long:"readtimeout" description:"maximum amount of time to wait for a request to be fully read"`
	WriteTimeout time.Duration `long:"writetimeout" description:"maximum amount of time to wait for a response to be fully written"`

	Logging *build.LogConfig `group:"logging" namespace:"logging"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		ListenAddr:   ":8402",
		DefaultPrice: 100,
		Lnd:          &LndConfig{},
		Store: &StoreConfig{
			Backend:   BackendSqlite,
			SqliteDSN: defaultSqlitePath,
		},
		Prometheus:   &metrics.Config{},
		DebugLevel:   defaultLogLevel,
		LogDir:       defaultDataDir,
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Logging:      build.DefaultLogConfig(),
	}
}

// Load parses command-line flags over a Config seeded with defaults, then
// layers in the YAML config file (if present) for any value the flags
// didn't already set, mirroring how jessevdk/go-flags leaves zero-valued
// fields alone so a config file can fill the gaps.
func Load(args []string) (*Config, error) {
	cfg := New()

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	configPath := cfg.ConfigFile
	if configPath == "" {
		configPath = filepath.Join(defaultDataDir, defaultConfigFilename)
	}

	if err := loadYAMLIfPresent(configPath, cfg); err != nil {
		return nil, err
	}

	// Command-line flags take precedence, so re-parse them over whatever
	// the YAML file supplied.
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

func loadYAMLIfPresent(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: unable to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: unable to parse config file: %w", err)
	}

	return nil
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: missing listen address")
	}
	if c.Location == "" {
		return fmt.Errorf("config: missing location")
	}

	switch c.Store.Backend {
	case BackendSqlite:
		if c.Store.SqliteDSN == "" {
			return fmt.Errorf("config: missing store.sqlitedsn")
		}
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("config: missing store.postgresdsn")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q",
			c.Store.Backend)
	}

	for i := range c.RateLimits {
		if err := c.RateLimits[i].Compile(); err != nil {
			return fmt.Errorf("config: invalid rate limit %d: %w",
				i, err)
		}
	}

	return nil
}
