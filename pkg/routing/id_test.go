package routing

import (
	"bytes"
	"math/big"
	"strings"
	"testing"
)

func mustId(t *testing.T, bitstring string) Id {
	t.Helper()
	length := len(bitstring)
	buf := make([]byte, byteLen(length))
	for i, c := range bitstring {
		if c == '1' {
			setBit(buf, i, 1)
		}
	}
	id, err := IdFromBytes(buf, length)
	if err != nil {
		t.Fatalf("mustId(%q): %v", bitstring, err)
	}
	return id
}

// --- IdFromBytes / IdFromBigInt ---

func TestIdFromBytes_MasksTrailingBits(t *testing.T) {
	id, err := IdFromBytes([]byte{0xFF}, 4)
	if err != nil {
		t.Fatalf("IdFromBytes: %v", err)
	}
	if got := id.String(); got != "1111" {
		t.Fatalf("String(): want 1111, got %s", got)
	}
}

func TestIdFromBytes_RejectsTooFewBytes(t *testing.T) {
	if _, err := IdFromBytes([]byte{0x01}, 9); err == nil {
		t.Fatal("expected error for insufficient bytes")
	}
}

func TestIdFromBigInt(t *testing.T) {
	id, err := IdFromBigInt(big.NewInt(5), 4)
	if err != nil {
		t.Fatalf("IdFromBigInt: %v", err)
	}
	if got := id.String(); got != "0101" {
		t.Fatalf("String(): want 0101, got %s", got)
	}
}

func TestIdFromBigInt_RejectsNegative(t *testing.T) {
	if _, err := IdFromBigInt(big.NewInt(-1), 4); err == nil {
		t.Fatal("expected error for negative value")
	}
}

func TestRandomId_RespectsLength(t *testing.T) {
	id, err := RandomId(12, bytes.NewReader(bytes.Repeat([]byte{0xFF}, 4)))
	if err != nil {
		t.Fatalf("RandomId: %v", err)
	}
	if id.Length() != 12 {
		t.Fatalf("Length(): want 12, got %d", id.Length())
	}
	if strings.Count(id.String(), "1") != 12 {
		t.Fatalf("expected all 12 significant bits set, got %s", id.String())
	}
}

// --- BitAt / Equal / CommonPrefixLen ---

func TestBitAt(t *testing.T) {
	id := mustId(t, "1010")
	want := []int{1, 0, 1, 0}
	for i, w := range want {
		if got := id.BitAt(i); got != w {
			t.Fatalf("BitAt(%d): want %d, got %d", i, w, got)
		}
	}
}

func TestBitAt_PanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range bit index")
		}
	}()
	mustId(t, "1010").BitAt(4)
}

func TestEqual(t *testing.T) {
	a := mustId(t, "1100")
	b := mustId(t, "1100")
	c := mustId(t, "1101")
	if !a.Equal(b) {
		t.Fatal("expected equal ids to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected differing ids to compare unequal")
	}
}

func TestCommonPrefixLen(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"0000", "0000", 4},
		{"0000", "1000", 0},
		{"1010", "1011", 3},
		{"1111", "0000", 0},
	}
	for _, c := range cases {
		got := mustId(t, c.a).CommonPrefixLen(mustId(t, c.b))
		if got != c.want {
			t.Fatalf("CommonPrefixLen(%s,%s): want %d, got %d", c.a, c.b, c.want, got)
		}
	}
}

// --- Xor / CompareMagnitude ---

func TestXor(t *testing.T) {
	got := mustId(t, "1010").Xor(mustId(t, "0110"))
	if got.String() != "1100" {
		t.Fatalf("Xor: want 1100, got %s", got.String())
	}
}

func TestXor_PanicsOnLengthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for length mismatch")
		}
	}()
	mustId(t, "1010").Xor(mustId(t, "101"))
}

func TestCompareMagnitude(t *testing.T) {
	low := mustId(t, "0001")
	high := mustId(t, "1000")
	if low.CompareMagnitude(high) >= 0 {
		t.Fatal("expected low < high")
	}
	if high.CompareMagnitude(low) <= 0 {
		t.Fatal("expected high > low")
	}
	if low.CompareMagnitude(low) != 0 {
		t.Fatal("expected equal magnitudes to compare 0")
	}
}

// --- String ---

func TestString(t *testing.T) {
	if got := mustId(t, "1010").String(); got != "1010" {
		t.Fatalf("String(): want 1010, got %s", got)
	}
}
