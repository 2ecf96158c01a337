package types

import (
	"encoding/json"
	"testing"
)

func TestBytesToHashPadding(t *testing.T) {
	h := BytesToHash([]byte{0xab})
	if h[31] != 0xab {
		t.Fatalf("expected left-padded hash, got %x", h)
	}
	for i := 0; i < 31; i++ {
		if h[i] != 0 {
			t.Fatalf("byte %d not zero", i)
		}
	}
}

func TestHexRoundTrip(t *testing.T) {
	h := HexToHash("0x0102030000000000000000000000000000000000000000000000000000000000")
	if h[0] != 0x01 || h[1] != 0x02 || h[2] != 0x03 {
		t.Fatalf("unexpected hash: %x", h)
	}

	a := HexToAddress("0xdeadbeef")
	if a.Hex() != "0x00000000000000000000000000000000deadbeef" {
		t.Fatalf("unexpected address hex: %s", a.Hex())
	}
}

func TestIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Fatal("zero hash should be zero")
	}
	h[0] = 1
	if h.IsZero() {
		t.Fatal("non-zero hash reported zero")
	}

	var a Address
	if !a.IsZero() {
		t.Fatal("zero address should be zero")
	}
}

func TestHashJSON(t *testing.T) {
	h := HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Hash
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != h {
		t.Fatalf("round trip mismatch: %s != %s", back, h)
	}
}

func TestAddressJSONRejectsBadLength(t *testing.T) {
	var a Address
	if err := json.Unmarshal([]byte(`"0x1234"`), &a); err == nil {
		t.Fatal("expected error for short address")
	}
}
