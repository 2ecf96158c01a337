// Package core implements the merklevest accounting-and-authorization
// engine: the vesting bucket registry, the schedule arithmetic, the
// released-amount ledger, the claim orchestrator and the emergency gate.
//
// Every entry point executes as a single serialized state transition that
// either fully commits or leaves no observable state change. Eligibility
// is never stored: it is reconstructed at claim time from caller-supplied
// data plus an inclusion proof against the bucket's commitment root.
package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/core/rawdb"
	"github.com/merklevest/merklevest/log"
	"github.com/merklevest/merklevest/merkle"
	"github.com/merklevest/merklevest/metrics"
	"github.com/merklevest/merklevest/types"
)

// Config carries the distributor's construction parameters.
type Config struct {
	// Owner is the privileged operator. Required non-zero.
	Owner types.Address

	// Now supplies the current Unix timestamp. Defaults to the wall
	// clock; tests inject a fixed clock.
	Now func() uint64

	// EventBuffer is the per-subscription channel buffer of the event
	// bus.
	EventBuffer int

	// Logger, if nil, defaults to the package default logger.
	Logger *log.Logger

	// Metrics, if nil, defaults to metrics.DefaultRegistry.
	Metrics *metrics.Registry
}

// Distributor owns the persisted bucket registry and released-amount
// ledger and orchestrates claims against them through an external token
// ledger.
type Distributor struct {
	mu    sync.Mutex
	db    rawdb.Database
	token TokenLedger
	owner types.Address
	now   func() uint64

	// transferring is the non-reentrant guard: set for the duration of an
	// external token transfer, during which every state-mutating entry
	// point is rejected. State is always written before the flag is set,
	// so even a guard bypass could not double-pay.
	transferring atomic.Bool

	events *EventBus
	log    *log.Logger

	claimsPaid     *metrics.Counter
	claimsRejected *metrics.Counter
	bucketsCreated *metrics.Counter
	sweeps         *metrics.Counter
}

// NewDistributor creates a distributor over the given database and token
// ledger.
func NewDistributor(db rawdb.Database, token TokenLedger, cfg Config) (*Distributor, error) {
	if cfg.Owner.IsZero() {
		return nil, fmt.Errorf("core: distributor requires a non-zero owner")
	}
	if cfg.Now == nil {
		cfg.Now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultRegistry
	}

	return &Distributor{
		db:             db,
		token:          token,
		owner:          cfg.Owner,
		now:            cfg.Now,
		events:         NewEventBus(cfg.EventBuffer),
		log:            cfg.Logger.Module("core"),
		claimsPaid:     cfg.Metrics.Counter("claims.paid"),
		claimsRejected: cfg.Metrics.Counter("claims.rejected"),
		bucketsCreated: cfg.Metrics.Counter("buckets.created"),
		sweeps:         cfg.Metrics.Counter("gate.sweeps"),
	}, nil
}

// Owner returns the privileged operator address.
func (d *Distributor) Owner() types.Address { return d.owner }

// Events returns the distributor's event bus.
func (d *Distributor) Events() *EventBus { return d.events }

// CreateBucket registers a new vesting bucket. Privileged; buckets are
// create-once and immutable thereafter.
func (d *Distributor) CreateBucket(caller types.Address, p BucketParams) error {
	if d.transferring.Load() {
		return ErrReentrantCall
	}
	if caller != d.owner {
		return ErrNotOwner
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if rawdb.HasBucket(d.db, p.ID) {
		return ErrBucketExists
	}
	if p.Root.IsZero() {
		return ErrEmptyRoot
	}
	if p.ProofsLocation == "" {
		return ErrEmptyProofsLocation
	}
	if p.ImmediateUnlockBps > BpsDenominator {
		return ErrInvalidFraction
	}
	if p.Start <= d.now() {
		return ErrInvalidTimestamp
	}

	total := p.TotalAllocated
	if total == nil {
		total = new(uint256.Int)
	}

	bucket := &VestingBucket{
		ID:                 p.ID,
		Root:               p.Root,
		TotalAllocated:     new(uint256.Int).Set(total),
		ImmediateUnlockBps: p.ImmediateUnlockBps,
		Start:              p.Start,
		Cliff:              p.Start + p.CliffDuration,
		VestingDuration:    p.VestingDuration,
		ProofsLocation:     p.ProofsLocation,
	}
	if err := rawdb.WriteBucket(d.db, bucket.ID, bucket.encode()); err != nil {
		return fmt.Errorf("core: persist bucket: %w", err)
	}

	d.bucketsCreated.Inc()
	d.log.Info("bucket created",
		"id", bucket.ID, "root", bucket.Root,
		"total", bucket.TotalAllocated, "start", bucket.Start,
		"cliff", bucket.Cliff, "duration", bucket.VestingDuration)
	d.events.Publish(EventBucketCreated, BucketCreatedEvent{Bucket: bucket})
	return nil
}

// Claim verifies the inclusion proof for (beneficiary, totalAllocation)
// against the bucket's commitment root, computes the currently vested
// amount, pays out the delta over what was already released and records
// the new cumulative released value. Callable by anyone; payment always
// routes to beneficiary. Returns the amount paid.
//
// The ledger is updated before the external transfer is invoked. A failed
// transfer rolls the update back, so the call is atomic either way.
func (d *Distributor) Claim(beneficiary types.Address, bucketID types.Hash, totalAllocation *uint256.Int, proof []types.Hash) (*uint256.Int, error) {
	if d.transferring.Load() {
		return nil, ErrReentrantCall
	}
	if totalAllocation == nil {
		totalAllocation = new(uint256.Int)
	}

	d.mu.Lock()

	payable, prev, cumulative, err := d.evaluateClaim(beneficiary, bucketID, totalAllocation, proof)
	if err != nil {
		d.mu.Unlock()
		d.claimsRejected.Inc()
		return nil, err
	}

	// State mutation precedes the external call: even a reentrant
	// callback from the token ledger observes the updated cumulative
	// released value.
	if err := rawdb.WriteReleased(d.db, bucketID, beneficiary, cumulative); err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("core: persist released amount: %w", err)
	}
	d.transferring.Store(true)
	d.mu.Unlock()

	terr := d.token.Transfer(beneficiary, payable)

	d.mu.Lock()
	d.transferring.Store(false)
	if terr != nil {
		// Abort atomically: restore the previous cumulative value.
		var rerr error
		if prev.IsZero() {
			rerr = rawdb.DeleteReleased(d.db, bucketID, beneficiary)
		} else {
			rerr = rawdb.WriteReleased(d.db, bucketID, beneficiary, prev)
		}
		d.mu.Unlock()
		if rerr != nil {
			d.log.Error("ledger rollback failed after transfer error",
				"bucket", bucketID, "beneficiary", beneficiary, "err", rerr)
		}
		d.claimsRejected.Inc()
		return nil, fmt.Errorf("core: token transfer failed: %w", terr)
	}
	d.mu.Unlock()

	d.claimsPaid.Inc()
	d.log.Info("claim paid",
		"bucket", bucketID, "beneficiary", beneficiary,
		"paid", payable, "cumulative", cumulative)
	d.events.Publish(EventClaimed, ClaimedEvent{
		BucketID:    bucketID,
		Beneficiary: beneficiary,
		Paid:        payable,
		Cumulative:  cumulative,
	})
	return payable, nil
}

// evaluateClaim runs the claim checks and computes (payable, previous
// cumulative, new cumulative). Caller holds d.mu.
func (d *Distributor) evaluateClaim(beneficiary types.Address, bucketID types.Hash, totalAllocation *uint256.Int, proof []types.Hash) (payable, prev, cumulative *uint256.Int, err error) {
	if rawdb.ReadHalted(d.db) {
		return nil, nil, nil, ErrHalted
	}

	bucket, err := d.readBucket(bucketID)
	if err != nil {
		return nil, nil, nil, err
	}

	leaf := merkle.LeafHash(beneficiary, totalAllocation)
	if !merkle.VerifyProof(bucket.Root, proof, leaf) {
		return nil, nil, nil, ErrInvalidProof
	}

	vested := VestedAmount(bucket, totalAllocation, d.now())
	released, err := rawdb.ReadReleased(d.db, bucketID, beneficiary)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("core: read released amount: %w", err)
	}
	if !vested.Gt(released) {
		return nil, nil, nil, ErrNothingToRelease
	}

	payable = new(uint256.Int).Sub(vested, released)
	return payable, released, vested, nil
}

// Releasable returns the amount a claim would pay right now, without
// mutating anything and without requiring a proof. Returns zero for an
// unknown bucket.
func (d *Distributor) Releasable(bucketID types.Hash, beneficiary types.Address, totalAllocation *uint256.Int) (*uint256.Int, error) {
	if totalAllocation == nil {
		totalAllocation = new(uint256.Int)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	bucket, err := d.readBucket(bucketID)
	if err == ErrBucketNotFound {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}

	vested := VestedAmount(bucket, totalAllocation, d.now())
	released, err := rawdb.ReadReleased(d.db, bucketID, beneficiary)
	if err != nil {
		return nil, fmt.Errorf("core: read released amount: %w", err)
	}
	if !vested.Gt(released) {
		return new(uint256.Int), nil
	}
	return vested.Sub(vested, released), nil
}

// SetInitialReleased bulk-sets cumulative released values for a bucket.
// Privileged escape hatch for importing state carried over from a prior
// deployment: it overwrites unconditionally and deliberately bypasses the
// released <= vested invariant, since the prior system's vesting math may
// differ. The whole import commits atomically.
func (d *Distributor) SetInitialReleased(caller types.Address, bucketID types.Hash, beneficiaries []types.Address, amounts []*uint256.Int) error {
	if d.transferring.Load() {
		return ErrReentrantCall
	}
	if caller != d.owner {
		return ErrNotOwner
	}
	if len(beneficiaries) != len(amounts) {
		return ErrArrayLengthMismatch
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !rawdb.HasBucket(d.db, bucketID) {
		return ErrBucketNotFound
	}

	batch := d.db.NewBatch()
	for i, beneficiary := range beneficiaries {
		amount := amounts[i]
		if amount == nil {
			amount = new(uint256.Int)
		}
		if err := rawdb.WriteReleased(batch, bucketID, beneficiary, amount); err != nil {
			return fmt.Errorf("core: stage released import: %w", err)
		}
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("core: commit released import: %w", err)
	}

	d.log.Info("released amounts imported", "bucket", bucketID, "entries", len(beneficiaries))
	d.events.Publish(EventReleasedImported, ReleasedImportedEvent{
		BucketID: bucketID,
		Entries:  len(beneficiaries),
	})
	return nil
}

// Halt triggers the emergency gate. Privileged and one-directional: there
// is no way back to the normal state for the distributor's lifetime.
func (d *Distributor) Halt(caller types.Address) error {
	if d.transferring.Load() {
		return ErrReentrantCall
	}
	if caller != d.owner {
		return ErrNotOwner
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if rawdb.ReadHalted(d.db) {
		return ErrHalted
	}
	if err := rawdb.WriteHalted(d.db); err != nil {
		return fmt.Errorf("core: persist halt: %w", err)
	}

	d.log.Warn("distributor halted", "by", caller)
	d.events.Publish(EventHalted, nil)
	return nil
}

// Sweep withdraws the distributor's entire remaining token balance to the
// owner. Only available while halted.
func (d *Distributor) Sweep(caller types.Address) (*uint256.Int, error) {
	if d.transferring.Load() {
		return nil, ErrReentrantCall
	}
	if caller != d.owner {
		return nil, ErrNotOwner
	}

	d.mu.Lock()
	if !rawdb.ReadHalted(d.db) {
		d.mu.Unlock()
		return nil, ErrNotHalted
	}
	balance, err := d.token.Balance()
	if err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("core: read token balance: %w", err)
	}
	if balance.IsZero() {
		d.mu.Unlock()
		return nil, ErrNothingToWithdraw
	}
	d.transferring.Store(true)
	d.mu.Unlock()

	terr := d.token.Transfer(d.owner, balance)
	d.transferring.Store(false)
	if terr != nil {
		return nil, fmt.Errorf("core: token transfer failed: %w", terr)
	}

	d.sweeps.Inc()
	d.log.Warn("emergency sweep", "to", d.owner, "amount", balance)
	d.events.Publish(EventSwept, SweptEvent{To: d.owner, Amount: balance})
	return balance, nil
}

// Halted reports whether the emergency gate has been triggered.
func (d *Distributor) Halted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return rawdb.ReadHalted(d.db)
}

// Bucket returns the schedule data of a registered bucket.
func (d *Distributor) Bucket(bucketID types.Hash) (*VestingBucket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readBucket(bucketID)
}

// Released returns the cumulative amount already paid to beneficiary from
// the given bucket. Absence of an entry is zero.
func (d *Distributor) Released(bucketID types.Hash, beneficiary types.Address) (*uint256.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return rawdb.ReadReleased(d.db, bucketID, beneficiary)
}

// BucketLedger returns every released-amount entry recorded for a bucket.
func (d *Distributor) BucketLedger(bucketID types.Hash) ([]rawdb.ReleasedEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return rawdb.ReadBucketLedger(d.db, bucketID)
}

// readBucket loads and decodes a bucket. Caller holds d.mu.
func (d *Distributor) readBucket(bucketID types.Hash) (*VestingBucket, error) {
	data, err := rawdb.ReadBucket(d.db, bucketID)
	if err == rawdb.ErrNotFound {
		return nil, ErrBucketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("core: read bucket: %w", err)
	}
	return decodeBucket(bucketID, data)
}
