// Command merklevestd is the merkle-committed vesting distributor daemon.
//
// Usage:
//
//	merklevestd [flags]
//
// Flags:
//
//	--datadir        Data directory path (default: merklevest-data)
//	--http.port      HTTP JSON-RPC port (default: 8937)
//	--owner          Hex address of the privileged operator (required)
//	--admin          Serve administrative vest_ methods (default: false)
//	--dev            In-memory database and token ledger (default: false)
//	--dev.supply     Token supply minted in dev mode (default: 1000000)
//	--token.rpc      Ethereum node JSON-RPC URL for the ERC-20 ledger
//	--token.address  ERC-20 contract hex address
//	--token.keyfile  Path of the treasury's hex-encoded private key
//	--verbosity      Log level 0-5 (default: 3)
//	--version        Print version and exit
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/merklevest/merklevest/log"
	"github.com/merklevest/merklevest/node"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	logger := log.New(node.VerbosityToLogLevel(cfg.Verbosity))
	log.SetDefault(logger)

	logger.Info("merklevestd starting",
		"version", version,
		"datadir", cfg.DataDir,
		"http", cfg.RPCAddr(),
		"owner", cfg.Owner,
		"admin", cfg.AdminRPC,
		"dev", cfg.DevMode)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		return 1
	}
	if !cfg.DevMode {
		if err := cfg.InitDataDir(); err != nil {
			logger.Error("failed to initialize datadir", "err", err)
			return 1
		}
	}

	n, err := node.New(&cfg)
	if err != nil {
		logger.Error("failed to create node", "err", err)
		return 1
	}
	if err := n.Start(); err != nil {
		logger.Error("failed to start node", "err", err)
		return 1
	}

	// Wait for SIGINT or SIGTERM to initiate graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	if err := n.Stop(); err != nil {
		logger.Error("error during shutdown", "err", err)
		return 1
	}
	return 0
}

// parseFlags parses CLI arguments into a Config. Returns the config, whether
// the caller should exit immediately, and the exit code.
func parseFlags(args []string) (node.Config, bool, int) {
	cfg := node.DefaultConfig()
	fs := newFlagSet(&cfg)

	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, true, 2
	}

	if *showVersion {
		fmt.Printf("merklevestd %s (commit %s)\n", version, commit)
		return cfg, true, 0
	}

	return cfg, false, 0
}

// newFlagSet creates a flag.FlagSet that binds all CLI flags to the given
// Config. The FlagSet uses ContinueOnError so callers control the error
// handling behavior.
func newFlagSet(cfg *node.Config) *flagSet {
	fs := newCustomFlagSet("merklevestd")
	fs.StringVar(&cfg.DataDir, "datadir", cfg.DataDir, "data directory path")
	fs.IntVar(&cfg.RPCPort, "http.port", cfg.RPCPort, "HTTP JSON-RPC server port")
	fs.StringVar(&cfg.Owner, "owner", cfg.Owner, "hex address of the privileged operator")
	fs.BoolVar(&cfg.AdminRPC, "admin", cfg.AdminRPC, "serve administrative vest_ methods")
	fs.BoolVar(&cfg.DevMode, "dev", cfg.DevMode, "in-memory database and token ledger")
	fs.Uint64Var(&cfg.DevSupply, "dev.supply", cfg.DevSupply, "token supply minted in dev mode")
	fs.StringVar(&cfg.TokenEndpoint, "token.rpc", cfg.TokenEndpoint, "Ethereum node JSON-RPC URL")
	fs.StringVar(&cfg.TokenAddress, "token.address", cfg.TokenAddress, "ERC-20 contract hex address")
	fs.StringVar(&cfg.TokenKeyFile, "token.keyfile", cfg.TokenKeyFile, "treasury private key file")
	fs.IntVar(&cfg.Verbosity, "verbosity", cfg.Verbosity, "log level 0-5 (0=silent, 5=trace)")
	return fs
}
