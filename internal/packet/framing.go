// Package packet implements the length-prefixed Minecraft packet framing
// envelope (VarInt(payload_length) || payload_bytes) and the three packet-ID
// discrimination modes: manual (no ID, opaque), managed (one fixed byte ID),
// and version-dependent (protocol version -> optional byte ID).
package packet

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"mc-forward-proxy/internal/mcproto"
)

// Body is implemented by every packet's wire representation.
type Body interface {
	// ByteSize reports the encoded size of the body alone, excluding any
	// length prefix or packet-ID byte added by the framing layer.
	ByteSize() int
}

// BodyReader is a Body that can decode itself from a framed payload.
// bodyLength is the number of bytes remaining in the packet after any
// packet-ID byte has already been consumed by the framer.
type BodyReader interface {
	Body
	ReadBody(r *bufio.Reader, bodyLength int) error
}

// BodyWriter is a Body that can encode itself into a packet payload.
type BodyWriter interface {
	Body
	WriteBody(w io.Writer) error
}

// VersionIDFunc maps a protocol version to the packet's ID for that version,
// or reports ok=false if no mapping exists for it.
type VersionIDFunc func(protocol int32) (id byte, ok bool)

// ReadManaged reads a framed packet whose ID is the single fixed byte id.
func ReadManaged(r *bufio.Reader, id byte, body BodyReader) error {
	return readManagedCore(r, id, body)
}

// ReadVersionDependent reads a framed packet whose ID depends on protocol,
// as resolved by idFn.
func ReadVersionDependent(r *bufio.Reader, idFn VersionIDFunc, protocol int32, body BodyReader) error {
	id, ok := idFn(protocol)
	if !ok {
		return &UnknownVersionedIDError{Protocol: protocol}
	}
	return readManagedCore(r, id, body)
}

// ReadManual reads a framed packet with no packet-ID byte at all, returning
// its raw body as a GenericPacket.
func ReadManual(r *bufio.Reader) (*GenericPacket, error) {
	length, err := mcproto.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: negative packet length", mcproto.ErrInvalidData)
	}
	g := &GenericPacket{}
	if err := g.ReadBody(r, int(length)); err != nil {
		return nil, err
	}
	return g, nil
}

func readManagedCore(r *bufio.Reader, id byte, body BodyReader) error {
	length, err := mcproto.ReadVarInt(r)
	if err != nil {
		return err
	}
	if length < 1 {
		return fmt.Errorf("%w: packet length %d too small for an id-bearing packet", mcproto.ErrInvalidData, length)
	}

	gotID, err := r.ReadByte()
	if err != nil {
		return err
	}
	if gotID != id {
		remaining := int(length) - 1
		rest := make([]byte, remaining)
		if _, err := io.ReadFull(r, rest); err != nil {
			return err
		}
		data := make([]byte, 0, remaining+1)
		data = append(data, gotID)
		data = append(data, rest...)
		return &InvalidPacketIDError{Expected: id, Got: gotID, Packet: &GenericPacket{Data: data}}
	}

	bodyLength := int(length) - 1
	return readBodyAndCheck(r, body, bodyLength)
}

func readBodyAndCheck(r *bufio.Reader, body BodyReader, bodyLength int) error {
	if err := body.ReadBody(r, bodyLength); err != nil {
		return err
	}
	got := body.ByteSize()
	switch {
	case got == bodyLength:
		return nil
	case got > bodyLength:
		// The body reader consumed more than the declared length: the
		// stream is now desynchronized at an invalid packet boundary.
		return &SizeMismatchError{Expected: bodyLength, Got: got}
	default:
		// Forward-compatible short read: drain the remainder and
		// succeed, per the framing invariant that packet extensions
		// must not break older readers.
		_, err := io.CopyN(io.Discard, r, int64(bodyLength-got))
		return err
	}
}

// WriteManaged writes a packet framed with the single fixed byte id.
func WriteManaged(w io.Writer, id byte, body BodyWriter) error {
	return writeFramed(w, &id, body)
}

// WriteVersionDependent writes a packet whose ID depends on protocol, as
// resolved by idFn.
func WriteVersionDependent(w io.Writer, idFn VersionIDFunc, protocol int32, body BodyWriter) error {
	id, ok := idFn(protocol)
	if !ok {
		return &InvalidPacketIDForProtocolError{Protocol: protocol}
	}
	return writeFramed(w, &id, body)
}

// WriteManual writes a packet with no packet-ID byte.
func WriteManual(w io.Writer, body BodyWriter) error {
	return writeFramed(w, nil, body)
}

func writeFramed(w io.Writer, id *byte, body BodyWriter) error {
	total := body.ByteSize()
	if id != nil {
		total++
	}

	buf := bytes.NewBuffer(make([]byte, 0, total+5))
	if err := mcproto.VarInt(total).WriteTo(buf); err != nil {
		return err
	}
	if id != nil {
		buf.WriteByte(*id)
	}
	if err := body.WriteBody(buf); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())
	return err
}
