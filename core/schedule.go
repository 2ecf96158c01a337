package core

import "github.com/holiman/uint256"

// VestedAmount computes the cumulative amount of an individual allocation
// unlockable at time now under the bucket's schedule. It is pure and
// monotonically non-decreasing in now for a fixed bucket and allocation.
//
// The immediate fraction unlocks at Start. Before the cliff nothing else
// unlocks. From the cliff the remainder unlocks linearly over
// VestingDuration measured from Start; a zero duration unlocks the whole
// remainder exactly at the cliff.
//
// All arithmetic is integer-truncating. The final instant of full vesting
// is decided by the elapsed >= duration branch, never by division, so
// truncation cannot strand value. Intermediate products use a 512-bit
// wide multiply-divide, so no allocation magnitude can overflow.
func VestedAmount(b *VestingBucket, total *uint256.Int, now uint64) *uint256.Int {
	if now < b.Start {
		return new(uint256.Int)
	}

	immediate, _ := new(uint256.Int).MulDivOverflow(
		total, uint256.NewInt(b.ImmediateUnlockBps), uint256.NewInt(BpsDenominator))
	remainder := new(uint256.Int).Sub(total, immediate)

	if now < b.Cliff {
		return immediate
	}
	if b.VestingDuration == 0 {
		return immediate.Add(immediate, remainder)
	}

	elapsed := now - b.Start
	if elapsed >= b.VestingDuration {
		return immediate.Add(immediate, remainder)
	}
	linear, _ := new(uint256.Int).MulDivOverflow(
		remainder, uint256.NewInt(elapsed), uint256.NewInt(b.VestingDuration))
	return immediate.Add(immediate, linear)
}
