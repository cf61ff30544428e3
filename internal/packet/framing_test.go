package packet

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"

	"mc-forward-proxy/internal/mcproto"
)

type stringBody struct {
	s string
}

func (b *stringBody) ByteSize() int { return mcproto.StringSize(b.s) }

func (b *stringBody) ReadBody(r *bufio.Reader, bodyLength int) error {
	s, err := mcproto.ReadString(r, mcproto.MaxStringLength)
	if err != nil {
		return err
	}
	b.s = s
	return nil
}

func (b *stringBody) WriteBody(w io.Writer) error {
	return mcproto.WriteString(w, b.s, mcproto.MaxStringLength)
}

func TestWriteManagedFrameLayout(t *testing.T) {
	body := &stringBody{s: "hello"}
	var buf bytes.Buffer
	if err := WriteManaged(&buf, 0x05, body); err != nil {
		t.Fatal(err)
	}

	n := body.ByteSize() + 1
	wantPrefix := mcproto.VarInt(n).Len()
	if buf.Len() != wantPrefix+n {
		t.Fatalf("total frame length = %d, want %d", buf.Len(), wantPrefix+n)
	}

	r := bufio.NewReader(&buf)
	length, err := mcproto.ReadVarInt(r)
	if err != nil {
		t.Fatal(err)
	}
	if int(length) != n {
		t.Fatalf("declared length = %d, want %d", length, n)
	}
}

func TestReadManagedRoundTrip(t *testing.T) {
	body := &stringBody{s: "round trip"}
	var buf bytes.Buffer
	if err := WriteManaged(&buf, 0x02, body); err != nil {
		t.Fatal(err)
	}

	got := &stringBody{}
	if err := ReadManaged(bufio.NewReader(&buf), 0x02, got); err != nil {
		t.Fatal(err)
	}
	if got.s != body.s {
		t.Fatalf("got %q, want %q", got.s, body.s)
	}
}

func TestReadManagedWrongIDReturnsGenericPacket(t *testing.T) {
	body := &stringBody{s: "payload"}
	var buf bytes.Buffer
	if err := WriteManaged(&buf, 0x09, body); err != nil {
		t.Fatal(err)
	}
	original := append([]byte(nil), buf.Bytes()...)

	got := &stringBody{}
	err := ReadManaged(bufio.NewReader(&buf), 0x01, got)

	var invalidID *InvalidPacketIDError
	if !errors.As(err, &invalidID) {
		t.Fatalf("expected InvalidPacketIDError, got %v", err)
	}

	// original, stripped of its length prefix, must equal 0xXX || remaining.
	r := bufio.NewReader(bytes.NewReader(original))
	length, err := mcproto.ReadVarInt(r)
	if err != nil {
		t.Fatal(err)
	}
	rest := make([]byte, length)
	if _, err := r.Read(rest); err != nil && len(rest) > 0 {
		t.Fatal(err)
	}
	if !bytes.Equal(invalidID.Packet.Data, rest) {
		t.Fatalf("buffered packet bytes = %x, want %x", invalidID.Packet.Data, rest)
	}
}

func TestReadManagedOverReadIsFatal(t *testing.T) {
	var buf bytes.Buffer
	// Declared length 2 (id + 1 body byte), but the body reader reports a
	// size of 10.
	mcproto.VarInt(2).WriteTo(&buf)
	buf.WriteByte(0x07)
	buf.WriteByte(0x00)

	got := &overReadBody{}
	err := ReadManaged(bufio.NewReader(&buf), 0x07, got)

	var mismatch *SizeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SizeMismatchError, got %v", err)
	}
}

type overReadBody struct{}

func (overReadBody) ByteSize() int { return 10 }
func (overReadBody) ReadBody(r *bufio.Reader, bodyLength int) error {
	_, err := r.ReadByte()
	return err
}

func TestReadManagedUnderReadDrains(t *testing.T) {
	var buf bytes.Buffer
	// Declared length 4 (id + 3 body bytes), body reader only consumes 1.
	mcproto.VarInt(4).WriteTo(&buf)
	buf.WriteByte(0x03)
	buf.Write([]byte{0xAA, 0xBB, 0xCC})

	got := &underReadBody{}
	if err := ReadManaged(bufio.NewReader(&buf), 0x03, got); err != nil {
		t.Fatalf("under-read should be drained and succeed, got %v", err)
	}
	if got.first != 0xAA {
		t.Fatalf("first byte = %x, want 0xAA", got.first)
	}
}

type underReadBody struct {
	first byte
}

func (underReadBody) ByteSize() int { return 1 }
func (b *underReadBody) ReadBody(r *bufio.Reader, bodyLength int) error {
	v, err := r.ReadByte()
	b.first = v
	return err
}
