package mcproto

import (
	"bufio"
	"bytes"
	"testing"
)

func TestUUIDRoundTrip(t *testing.T) {
	u := UUID{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF, 0, 0, 0, 0, 0, 0, 0, 0}
	var buf bytes.Buffer
	if err := u.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ReadUUID(bufio.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if got != u {
		t.Fatalf("round trip mismatch: wrote %v, read %v", u, got)
	}
}

func TestUUIDHexNoLeadingZeroesNoSeparators(t *testing.T) {
	u := UUID{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF, 0, 0, 0, 0, 0, 0, 0, 0}
	want := "123456789abcdef0000000000000000"
	if got := u.Hex(); got != want {
		t.Fatalf("Hex() = %q, want %q", got, want)
	}

	zero := UUID{}
	if got := zero.Hex(); got != "0" {
		t.Fatalf("Hex() of zero UUID = %q, want \"0\"", got)
	}
}
