package core

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/types"
)

// BpsDenominator is the basis-points denominator for the immediate-unlock
// fraction.
const BpsDenominator = 10000

// VestingBucket is an independently scheduled pool of allocations sharing
// one commitment root and one vesting schedule. Buckets are created once
// and never updated or deleted; only the released-amount ledger they
// govern is mutable.
type VestingBucket struct {
	// ID is the caller-chosen unique identifier, conventionally the
	// keccak256 of a human-readable bucket name.
	ID types.Hash

	// Root commits to the full set of (beneficiary, allocation) pairs.
	Root types.Hash

	// TotalAllocated is the informational total across the bucket. It is
	// not enforced against the sum of the committed leaves.
	TotalAllocated *uint256.Int

	// ImmediateUnlockBps is the basis-points fraction of an allocation
	// available from Start, in [0, 10000].
	ImmediateUnlockBps uint64

	// Start is the Unix timestamp at which the schedule begins.
	Start uint64

	// Cliff = Start + cliff duration. Before this moment only the
	// immediate-unlock fraction is claimable.
	Cliff uint64

	// VestingDuration is the number of seconds over which the remainder
	// unlocks linearly after Start. Zero means the remainder unlocks in
	// full exactly at the cliff.
	VestingDuration uint64

	// ProofsLocation identifies where the beneficiary/proof artifact is
	// published. Required non-empty, otherwise uninterpreted.
	ProofsLocation string
}

// bucketEncVersion guards the persisted layout.
const bucketEncVersion = 1

// encode serializes the bucket for persistence. The id is the storage key
// and is not repeated in the value.
func (b *VestingBucket) encode() []byte {
	total := b.TotalAllocated.Bytes32()
	buf := make([]byte, 0, 1+32+32+8*4+len(b.ProofsLocation))
	buf = append(buf, bucketEncVersion)
	buf = append(buf, b.Root[:]...)
	buf = append(buf, total[:]...)
	buf = binary.BigEndian.AppendUint64(buf, b.ImmediateUnlockBps)
	buf = binary.BigEndian.AppendUint64(buf, b.Start)
	buf = binary.BigEndian.AppendUint64(buf, b.Cliff)
	buf = binary.BigEndian.AppendUint64(buf, b.VestingDuration)
	buf = append(buf, b.ProofsLocation...)
	return buf
}

// decodeBucket deserializes a bucket stored under id.
func decodeBucket(id types.Hash, data []byte) (*VestingBucket, error) {
	const fixed = 1 + 32 + 32 + 8*4
	if len(data) < fixed {
		return nil, fmt.Errorf("core: bucket record too short: %d bytes", len(data))
	}
	if data[0] != bucketEncVersion {
		return nil, fmt.Errorf("core: unknown bucket encoding version %d", data[0])
	}

	b := &VestingBucket{ID: id, TotalAllocated: new(uint256.Int)}
	off := 1
	copy(b.Root[:], data[off:off+32])
	off += 32
	b.TotalAllocated.SetBytes32(data[off : off+32])
	off += 32
	b.ImmediateUnlockBps = binary.BigEndian.Uint64(data[off:])
	off += 8
	b.Start = binary.BigEndian.Uint64(data[off:])
	off += 8
	b.Cliff = binary.BigEndian.Uint64(data[off:])
	off += 8
	b.VestingDuration = binary.BigEndian.Uint64(data[off:])
	off += 8
	b.ProofsLocation = string(data[off:])
	return b, nil
}

// BucketParams carries the caller-supplied fields of CreateBucket.
type BucketParams struct {
	ID                 types.Hash
	Root               types.Hash
	TotalAllocated     *uint256.Int
	ImmediateUnlockBps uint64
	Start              uint64
	CliffDuration      uint64
	VestingDuration    uint64
	ProofsLocation     string
}
