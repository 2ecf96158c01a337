package geth

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/types"
)

func TestAddressRoundTrip(t *testing.T) {
	a := types.HexToAddress("0x00000000000000000000000000000000deadbeef")
	if got := FromGethAddress(ToGethAddress(a)); got != a {
		t.Fatalf("round trip changed address: %s != %s", got, a)
	}
}

func TestHashRoundTrip(t *testing.T) {
	h := types.HexToHash("0xcafe")
	if got := FromGethHash(ToGethHash(h)); got != h {
		t.Fatalf("round trip changed hash: %s != %s", got, h)
	}
}

func TestUint256Conversion(t *testing.T) {
	u := uint256.MustFromDecimal("340282366920938463463374607431768211456") // 2^128
	b := FromUint256(u)
	if b.Cmp(new(big.Int).Lsh(big.NewInt(1), 128)) != 0 {
		t.Fatalf("FromUint256 = %s", b)
	}
	if got := ToUint256(b); !got.Eq(u) {
		t.Fatalf("ToUint256 = %s, want %s", got, u)
	}
}

func TestUint256NilHandling(t *testing.T) {
	if got := ToUint256(nil); !got.IsZero() {
		t.Fatalf("ToUint256(nil) = %s, want 0", got)
	}
	if got := FromUint256(nil); got.Sign() != 0 {
		t.Fatalf("FromUint256(nil) = %s, want 0", got)
	}
}
