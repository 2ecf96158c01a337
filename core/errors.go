package core

import "errors"

// Validation errors at bucket creation. Always locally detected and
// surfaced to the caller with a distinguishing kind.
var (
	// ErrBucketExists is returned when creating a bucket whose id is
	// already registered. Buckets are create-once.
	ErrBucketExists = errors.New("core: bucket already exists")

	// ErrEmptyRoot is returned when the commitment root is all zeros.
	ErrEmptyRoot = errors.New("core: empty commitment root")

	// ErrEmptyProofsLocation is returned when the off-chain proofs
	// reference is empty.
	ErrEmptyProofsLocation = errors.New("core: empty proofs location")

	// ErrInvalidFraction is returned when the immediate-unlock fraction
	// exceeds 10000 basis points.
	ErrInvalidFraction = errors.New("core: immediate unlock fraction above 10000 bps")

	// ErrInvalidTimestamp is returned when the schedule start is not
	// strictly in the future.
	ErrInvalidTimestamp = errors.New("core: start timestamp not in the future")
)

// Authorization errors at claim time. Terminal for the call; a retry needs
// new input.
var (
	// ErrBucketNotFound is returned for operations on an unknown bucket.
	ErrBucketNotFound = errors.New("core: bucket not found")

	// ErrInvalidProof is returned when the inclusion proof does not bind
	// the (beneficiary, allocation) pair to the bucket's root.
	ErrInvalidProof = errors.New("core: invalid inclusion proof")
)

// State errors. Terminal for the call and expected to recur until an
// external condition changes.
var (
	// ErrNothingToRelease is returned when the vested amount does not
	// exceed what has already been paid out.
	ErrNothingToRelease = errors.New("core: nothing to release")

	// ErrHalted is returned by claim (and by a second halt) once the
	// emergency gate has been triggered.
	ErrHalted = errors.New("core: distributor is halted")

	// ErrNotHalted is returned by sweep while the gate is in its normal
	// state.
	ErrNotHalted = errors.New("core: distributor is not halted")

	// ErrNothingToWithdraw is returned by sweep when the token balance is
	// zero.
	ErrNothingToWithdraw = errors.New("core: nothing to withdraw")
)

// Operator errors. Rejected before any state is touched.
var (
	// ErrNotOwner is returned when a privileged operation is invoked by a
	// caller other than the configured owner.
	ErrNotOwner = errors.New("core: caller is not the owner")

	// ErrArrayLengthMismatch is returned by the migration import when the
	// beneficiary and amount slices differ in length.
	ErrArrayLengthMismatch = errors.New("core: beneficiaries and amounts length mismatch")
)

// ErrReentrantCall is returned when a state-mutating entry point is invoked
// while an external token transfer from a previous call is still in flight.
var ErrReentrantCall = errors.New("core: reentrant call")
