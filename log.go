package l402x

import (
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/lightninglabs/l402x/auth"
	"github.com/lightninglabs/l402x/credstore"
	"github.com/lightninglabs/l402x/invoiceprovider"
	"github.com/lightninglabs/l402x/l402"
	"github.com/lightninglabs/l402x/l402client"
	"github.com/lightninglabs/l402x/middleware"
	"github.com/lightninglabs/l402x/preimageprovider"
	"github.com/lightninglabs/l402x/rootkeystore"
	"github.com/lightningnetwork/lnd/build"
)

// Subsystem defines the logging code for this subsystem.
const Subsystem = "L4PX"

const (
	defaultMaxLogFileSize = 10
	defaultMaxLogFiles    = 3
)

var (
	logWriter = build.NewRotatingLogWriter()

	log = build.NewSubLogger(Subsystem, logWriter.GenSubLogger)
)

func init() {
	setSubLogger(Subsystem, log, nil)
	addSubLogger(l402.Subsystem, l402.UseLogger)
	addSubLogger(auth.Subsystem, auth.UseLogger)
	addSubLogger(invoiceprovider.Subsystem, invoiceprovider.UseLogger)
	addSubLogger(preimageprovider.Subsystem, preimageprovider.UseLogger)
	addSubLogger(rootkeystore.Subsystem, rootkeystore.UseLogger)
	addSubLogger(credstore.Subsystem, credstore.UseLogger)
	addSubLogger(l402client.Subsystem, l402client.UseLogger)
	addSubLogger(middleware.Subsystem, middleware.UseLogger)
}

// SetupLogging initializes the rotating log file under logDir and sets every
// registered subsystem's debug level from the debugLevel spec (either a
// single level applied to all subsystems, or a comma-separated list of
// SUBSYS=level overrides).
func SetupLogging(logDir, debugLevel string) error {
	logFile := filepath.Join(logDir, "l402gated.log")

	err := logWriter.InitLogRotator(
		logFile, defaultMaxLogFileSize, defaultMaxLogFiles,
	)
	if err != nil {
		return err
	}

	return build.ParseAndSetDebugLevels(debugLevel, logWriter)
}

// addSubLogger is a helper method to conveniently create and register the
// logger of a sub system.
func addSubLogger(subsystem string, useLogger func(btclog.Logger)) {
	logger := build.NewSubLogger(subsystem, logWriter.GenSubLogger)
	setSubLogger(subsystem, logger, useLogger)
}

// setSubLogger is a helper method to conveniently register the logger of a
// sub system.
func setSubLogger(subsystem string, logger btclog.Logger,
	useLogger func(btclog.Logger)) {

	logWriter.RegisterSubLogger(subsystem, logger)
	if useLogger != nil {
		useLogger(logger)
	}
}
