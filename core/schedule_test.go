package core

import (
	"testing"

	"github.com/holiman/uint256"
)

const day = 86400

// testBucket returns a bucket with a 10% immediate unlock, 30-day cliff
// and 365-day linear vesting starting at start.
func testBucket(start uint64) *VestingBucket {
	return &VestingBucket{
		TotalAllocated:     uint256.NewInt(1_000_000),
		ImmediateUnlockBps: 1000,
		Start:              start,
		Cliff:              start + 30*day,
		VestingDuration:    365 * day,
		ProofsLocation:     "ipfs://test",
	}
}

func TestVestedAmountBeforeStart(t *testing.T) {
	b := testBucket(1000)
	if got := VestedAmount(b, uint256.NewInt(1000), 999); !got.IsZero() {
		t.Fatalf("vested before start = %s, want 0", got)
	}
}

func TestVestedAmountAtStartEqualsImmediate(t *testing.T) {
	b := testBucket(1000)
	got := VestedAmount(b, uint256.NewInt(1000), 1000)
	if !got.Eq(uint256.NewInt(100)) {
		t.Fatalf("vested at start = %s, want 100", got)
	}
}

func TestVestedAmountBeforeCliff(t *testing.T) {
	b := testBucket(1000)
	got := VestedAmount(b, uint256.NewInt(1000), 1000+29*day)
	if !got.Eq(uint256.NewInt(100)) {
		t.Fatalf("vested before cliff = %s, want immediate only (100)", got)
	}
}

func TestVestedAmountLinearPortion(t *testing.T) {
	b := testBucket(1000)
	// elapsed = 31 days of a 365-day schedule over a 900-unit remainder:
	// floor(900 * 31d / 365d) = 76.
	got := VestedAmount(b, uint256.NewInt(1000), 1000+31*day)
	if !got.Eq(uint256.NewInt(176)) {
		t.Fatalf("vested at day 31 = %s, want 176", got)
	}
}

func TestVestedAmountFullAtEnd(t *testing.T) {
	total := uint256.NewInt(1000)
	for _, duration := range []uint64{0, 1, day, 365 * day} {
		b := testBucket(1000)
		b.VestingDuration = duration
		end := b.Start + duration
		if end < b.Cliff {
			end = b.Cliff
		}
		if got := VestedAmount(b, total, end); !got.Eq(total) {
			t.Fatalf("duration %d: vested at end = %s, want %s", duration, got, total)
		}
		if got := VestedAmount(b, total, end+12345); !got.Eq(total) {
			t.Fatalf("duration %d: vested past end = %s, want %s", duration, got, total)
		}
	}
}

func TestVestedAmountZeroDurationUnlocksAtCliff(t *testing.T) {
	b := testBucket(1000)
	b.VestingDuration = 0
	total := uint256.NewInt(1000)

	if got := VestedAmount(b, total, b.Cliff-1); !got.Eq(uint256.NewInt(100)) {
		t.Fatalf("before cliff = %s, want 100", got)
	}
	if got := VestedAmount(b, total, b.Cliff); !got.Eq(total) {
		t.Fatalf("at cliff = %s, want full allocation", got)
	}
}

func TestVestedAmountMonotonic(t *testing.T) {
	b := testBucket(1000)
	total := uint256.NewInt(999_983) // awkward divisor on purpose
	prev := new(uint256.Int)
	for now := uint64(0); now <= b.Start+400*day; now += 6 * 3600 {
		got := VestedAmount(b, total, now)
		if got.Lt(prev) {
			t.Fatalf("vested decreased at t=%d: %s < %s", now, got, prev)
		}
		if got.Gt(total) {
			t.Fatalf("vested exceeds allocation at t=%d: %s > %s", now, got, total)
		}
		prev = got
	}
	if !prev.Eq(total) {
		t.Fatalf("final vested = %s, want %s", prev, total)
	}
}

func TestVestedAmountTruncatesDown(t *testing.T) {
	b := testBucket(1000)
	b.ImmediateUnlockBps = 0
	b.Cliff = b.Start
	b.VestingDuration = 10
	total := uint256.NewInt(3)

	// floor(3 * elapsed / 10): stays 0 until elapsed 4, never rounds up.
	for elapsed, want := range map[uint64]uint64{
		0: 0, 1: 0, 3: 0, 4: 1, 6: 1, 7: 2, 9: 2, 10: 3,
	} {
		got := VestedAmount(b, total, b.Start+elapsed)
		if !got.Eq(uint256.NewInt(want)) {
			t.Fatalf("elapsed %d: vested = %s, want %d", elapsed, got, want)
		}
	}
}

func TestVestedAmountHugeAllocationNoOverflow(t *testing.T) {
	b := testBucket(1000)
	b.ImmediateUnlockBps = 9999

	// A total near 2^256 would overflow a naive total*bps product; the
	// widened multiply-divide must still land below the total.
	total := new(uint256.Int).Sub(
		new(uint256.Int).Lsh(uint256.NewInt(1), 255), uint256.NewInt(1))
	got := VestedAmount(b, total, b.Start)
	if got.Gt(total) {
		t.Fatalf("vested %s exceeds total %s", got, total)
	}
	if got.IsZero() {
		t.Fatal("vested should be nearly the whole total, got 0")
	}
}

func TestVestedAmountZeroFraction(t *testing.T) {
	b := testBucket(1000)
	b.ImmediateUnlockBps = 0
	if got := VestedAmount(b, uint256.NewInt(1000), b.Start); !got.IsZero() {
		t.Fatalf("vested at start with 0 bps = %s, want 0", got)
	}
}

func TestVestedAmountFullFraction(t *testing.T) {
	b := testBucket(1000)
	b.ImmediateUnlockBps = BpsDenominator
	total := uint256.NewInt(777)
	if got := VestedAmount(b, total, b.Start); !got.Eq(total) {
		t.Fatalf("vested at start with 10000 bps = %s, want %s", got, total)
	}
}
