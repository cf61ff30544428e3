package mcproto

import (
	"bufio"
	"bytes"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 127, 128, 255, 2097151, 2147483647, -2147483648, 25565}
	for _, v := range values {
		var buf bytes.Buffer
		if err := VarInt(v).WriteTo(&buf); err != nil {
			t.Fatalf("WriteTo(%d): %v", v, err)
		}
		if buf.Len() != VarInt(v).Len() {
			t.Fatalf("Len() mismatch for %d: declared %d, wrote %d", v, VarInt(v).Len(), buf.Len())
		}
		got, err := ReadVarInt(bufio.NewReader(&buf))
		if err != nil {
			t.Fatalf("ReadVarInt(%d): %v", v, err)
		}
		if int32(got) != v {
			t.Fatalf("round trip mismatch: wrote %d, read %d", v, got)
		}
	}
}

func TestVarIntSizeDiscipline(t *testing.T) {
	// six continuation bytes, all with the high bit set: too big.
	bad := bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	_, err := ReadVarInt(bufio.NewReader(bad))
	if err != ErrVarIntTooBig {
		t.Fatalf("expected ErrVarIntTooBig, got %v", err)
	}

	for _, v := range []int32{0, 1, 127, 128, 2097151, 2147483647, -1} {
		var buf bytes.Buffer
		if err := VarInt(v).WriteTo(&buf); err != nil {
			t.Fatalf("WriteTo(%d): %v", v, err)
		}
		if buf.Len() > 5 {
			t.Fatalf("wrote %d bytes for %d, more than 5", buf.Len(), v)
		}
	}
}

func TestVarIntLenMatchesEncodedThresholds(t *testing.T) {
	cases := []struct {
		v    int32
		want int
	}{
		{0, 1}, {127, 1}, {128, 2}, {16383, 2}, {16384, 3},
		{2097151, 3}, {2097152, 4}, {268435455, 4}, {268435456, 5}, {-1, 5},
	}
	for _, c := range cases {
		if got := VarInt(c.v).Len(); got != c.want {
			t.Errorf("VarInt(%d).Len() = %d, want %d", c.v, got, c.want)
		}
	}
}
