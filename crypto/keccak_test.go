package crypto

import (
	"testing"

	"github.com/merklevest/merklevest/types"
)

func TestKeccak256EmptyInput(t *testing.T) {
	// keccak256("") is a well-known constant.
	want := types.HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	if got := Keccak256Hash(); got != want {
		t.Fatalf("keccak256(\"\") = %s, want %s", got, want)
	}
}

func TestKeccak256MultiWriteEquivalence(t *testing.T) {
	a := Keccak256Hash([]byte("hello"), []byte("world"))
	b := Keccak256Hash([]byte("helloworld"))
	if a != b {
		t.Fatalf("split input hash %s != joined input hash %s", a, b)
	}
}

func TestKeccak256KnownVector(t *testing.T) {
	// keccak256("abc")
	want := types.HexToHash("0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45")
	if got := Keccak256Hash([]byte("abc")); got != want {
		t.Fatalf("keccak256(\"abc\") = %s, want %s", got, want)
	}
}
