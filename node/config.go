// Package node implements the merklevestd daemon lifecycle, wiring together
// the database, the token ledger, the distributor and the JSON-RPC server.
package node

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/merklevest/merklevest/types"
)

// Config holds all configuration for a merklevestd node.
type Config struct {
	// DataDir is the root directory for all data storage.
	DataDir string

	// Name is a human-readable node identifier (used in logs).
	Name string

	// RPCPort is the HTTP port for the JSON-RPC server.
	RPCPort int

	// Owner is the hex address of the privileged operator. Administrative
	// RPC methods execute as this address.
	Owner string

	// AdminRPC enables the administrative vest_ methods on the HTTP
	// endpoint. When false only reads and vest_claim are served.
	AdminRPC bool

	// DevMode runs against an in-memory database and an in-memory token
	// ledger instead of LevelDB and an Ethereum node.
	DevMode bool

	// DevSupply is the token supply minted into the in-memory ledger in
	// dev mode.
	DevSupply uint64

	// TokenEndpoint is the JSON-RPC URL of the Ethereum node carrying the
	// ERC-20 token. Ignored in dev mode.
	TokenEndpoint string

	// TokenAddress is the hex address of the ERC-20 contract. Ignored in
	// dev mode.
	TokenAddress string

	// TokenKeyFile is the path of the treasury's hex-encoded private key.
	// Ignored in dev mode.
	TokenKeyFile string

	// TokenTimeout bounds each Ethereum node interaction.
	TokenTimeout time.Duration

	// Verbosity controls log verbosity 0-5 (0=silent, 5=trace).
	Verbosity int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:      "merklevest-data",
		Name:         "merklevestd",
		RPCPort:      8937,
		DevSupply:    1_000_000,
		TokenTimeout: 2 * time.Minute,
		Verbosity:    3,
	}
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: datadir must not be empty")
	}
	if c.RPCPort < 0 || c.RPCPort > 65535 {
		return fmt.Errorf("config: invalid rpc port: %d", c.RPCPort)
	}
	owner, err := c.OwnerAddress()
	if err != nil {
		return err
	}
	if owner.IsZero() {
		return errors.New("config: owner address must not be zero")
	}
	if !c.DevMode {
		if c.TokenEndpoint == "" {
			return errors.New("config: token.rpc endpoint required outside dev mode")
		}
		if _, err := c.TokenContract(); err != nil {
			return err
		}
		if c.TokenKeyFile == "" {
			return errors.New("config: token.keyfile required outside dev mode")
		}
	}
	if c.Verbosity < 0 || c.Verbosity > 5 {
		return fmt.Errorf("config: invalid verbosity: %d", c.Verbosity)
	}
	return nil
}

// OwnerAddress parses the configured owner address.
func (c *Config) OwnerAddress() (types.Address, error) {
	var a types.Address
	if err := a.UnmarshalText([]byte(c.Owner)); err != nil {
		return types.Address{}, fmt.Errorf("config: invalid owner address %q: %v", c.Owner, err)
	}
	return a, nil
}

// TokenContract parses the configured ERC-20 contract address.
func (c *Config) TokenContract() (types.Address, error) {
	var a types.Address
	if err := a.UnmarshalText([]byte(c.TokenAddress)); err != nil {
		return types.Address{}, fmt.Errorf("config: invalid token address %q: %v", c.TokenAddress, err)
	}
	if a.IsZero() {
		return types.Address{}, errors.New("config: token address must not be zero")
	}
	return a, nil
}

// InitDataDir creates the data directory structure.
func (c *Config) InitDataDir() error {
	return os.MkdirAll(c.ResolvePath("chaindata"), 0o700)
}

// ResolvePath resolves a path relative to the data directory.
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// RPCAddr returns the RPC listen address string.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", c.RPCPort)
}

// VerbosityToLogLevel maps the numeric verbosity flag to a slog level.
func VerbosityToLogLevel(verbosity int) slog.Level {
	switch verbosity {
	case 0:
		return slog.LevelError + 4 // effectively silent
	case 1:
		return slog.LevelError
	case 2:
		return slog.LevelWarn
	case 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
