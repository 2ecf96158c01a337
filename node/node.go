package node

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/core"
	"github.com/merklevest/merklevest/core/rawdb"
	"github.com/merklevest/merklevest/geth"
	"github.com/merklevest/merklevest/log"
	"github.com/merklevest/merklevest/rpc"
	"github.com/merklevest/merklevest/types"
)

// Node is the top-level merklevestd daemon that manages all subsystems.
type Node struct {
	config *Config
	log    *log.Logger

	db         rawdb.Database
	ledger     core.TokenLedger
	dist       *core.Distributor
	rpcServer  *http.Server
	rpcHandler *rpc.Server

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// New creates a new Node with the given configuration. It opens the
// database and the token ledger but does not start the RPC server.
func New(config *Config) (*Node, error) {
	if config == nil {
		c := DefaultConfig()
		config = &c
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	owner, err := config.OwnerAddress()
	if err != nil {
		return nil, err
	}

	n := &Node{
		config: config,
		log:    log.Default().Module("node"),
		stop:   make(chan struct{}),
	}

	if err := n.openDatabase(); err != nil {
		return nil, err
	}
	if err := n.openLedger(); err != nil {
		n.db.Close()
		return nil, err
	}

	dist, err := core.NewDistributor(n.db, n.ledger, core.Config{Owner: owner})
	if err != nil {
		n.closeLedger()
		n.db.Close()
		return nil, fmt.Errorf("init distributor: %w", err)
	}
	n.dist = dist

	operator := types.Address{} // admin methods disabled
	if config.AdminRPC {
		operator = owner
	}
	n.rpcHandler = rpc.NewServer(dist, operator)
	return n, nil
}

func (n *Node) openDatabase() error {
	if n.config.DevMode {
		n.db = rawdb.NewMemoryDB()
		n.log.Info("using in-memory database (dev mode)")
		return nil
	}
	path := n.config.ResolvePath("chaindata")
	db, err := rawdb.NewLevelDB(path)
	if err != nil {
		return fmt.Errorf("open leveldb at %s: %w", path, err)
	}
	n.db = db
	n.log.Info("database opened", "path", path)
	return nil
}

func (n *Node) openLedger() error {
	if n.config.DevMode {
		n.ledger = core.NewMemoryLedger(uint256.NewInt(n.config.DevSupply))
		n.log.Info("using in-memory token ledger (dev mode)", "supply", n.config.DevSupply)
		return nil
	}

	token, err := n.config.TokenContract()
	if err != nil {
		return err
	}
	key, err := geth.LoadKey(n.config.TokenKeyFile)
	if err != nil {
		return fmt.Errorf("load treasury key: %w", err)
	}
	ledger, err := geth.NewERC20Ledger(geth.Config{
		Endpoint: n.config.TokenEndpoint,
		Token:    token,
		Key:      key,
		Timeout:  n.config.TokenTimeout,
	})
	if err != nil {
		return err
	}
	n.ledger = ledger
	return nil
}

func (n *Node) closeLedger() {
	if closer, ok := n.ledger.(interface{ Close() }); ok {
		closer.Close()
	}
}

// Start starts the JSON-RPC server.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return errors.New("node already running")
	}

	n.rpcServer = &http.Server{
		Addr:    n.config.RPCAddr(),
		Handler: n.rpcHandler.Handler(),
	}
	go func() {
		n.log.Info("rpc server listening", "addr", n.config.RPCAddr())
		if err := n.rpcServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.log.Error("rpc server error", "err", err)
		}
	}()

	n.running = true
	n.log.Info("node started", "name", n.config.Name)
	return nil
}

// Stop gracefully shuts down all subsystems in reverse order.
func (n *Node) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		return nil
	}

	if n.rpcServer != nil {
		if err := n.rpcServer.Close(); err != nil {
			n.log.Error("rpc server stop error", "err", err)
		}
	}
	n.dist.Events().Close()
	n.closeLedger()
	if err := n.db.Close(); err != nil {
		n.log.Error("database close error", "err", err)
	}

	n.running = false
	close(n.stop)
	n.log.Info("node stopped")
	return nil
}

// Wait blocks until the node is stopped.
func (n *Node) Wait() {
	<-n.stop
}

// Distributor returns the distributor instance.
func (n *Node) Distributor() *core.Distributor {
	return n.dist
}

// Config returns the node configuration.
func (n *Node) Config() *Config {
	return n.config
}

// Running reports whether the node is currently running.
func (n *Node) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}
