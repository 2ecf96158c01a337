package core

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/types"
)

// TokenLedger is the external fungible-token collaborator. The distributor
// treats it as opaque: it can move tokens out of the distributor's own
// holdings and report how much remains. A failed Transfer aborts the
// surrounding claim atomically.
type TokenLedger interface {
	// Transfer moves amount from the distributor's holdings to `to`.
	Transfer(to types.Address, amount *uint256.Int) error

	// Balance returns the distributor's remaining holdings.
	Balance() (*uint256.Int, error)
}

// ErrInsufficientBalance is returned by MemoryLedger when a transfer
// exceeds the distributor's holdings.
var ErrInsufficientBalance = errors.New("core: insufficient token balance")

// MemoryLedger is an in-process TokenLedger holding the distributor's
// funds directly. It backs tests and the daemon's dev mode; production
// deployments use the ERC-20 adapter.
type MemoryLedger struct {
	mu       sync.Mutex
	held     *uint256.Int
	balances map[types.Address]*uint256.Int
}

// NewMemoryLedger creates a ledger with the given amount held by the
// distributor.
func NewMemoryLedger(supply *uint256.Int) *MemoryLedger {
	return &MemoryLedger{
		held:     new(uint256.Int).Set(supply),
		balances: make(map[types.Address]*uint256.Int),
	}
}

// Transfer moves amount from the distributor's holdings to `to`.
func (l *MemoryLedger) Transfer(to types.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held.Lt(amount) {
		return ErrInsufficientBalance
	}
	l.held.Sub(l.held, amount)

	bal, ok := l.balances[to]
	if !ok {
		bal = new(uint256.Int)
		l.balances[to] = bal
	}
	bal.Add(bal, amount)
	return nil
}

// Balance returns the distributor's remaining holdings.
func (l *MemoryLedger) Balance() (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(uint256.Int).Set(l.held), nil
}

// BalanceOf returns the amount received so far by holder.
func (l *MemoryLedger) BalanceOf(holder types.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if bal, ok := l.balances[holder]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}
