package packet

import "fmt"

// InvalidPacketIDError is returned by the read side when a framed packet's
// ID byte does not match the expected managed or version-dependent ID. The
// already-consumed bytes are preserved in Packet so the caller can buffer
// or replay them.
type InvalidPacketIDError struct {
	Expected byte
	Got      byte
	Packet   *GenericPacket
}

func (e *InvalidPacketIDError) Error() string {
	return fmt.Sprintf("packet: invalid packet id: expected 0x%02x, got 0x%02x", e.Expected, e.Got)
}

// SizeMismatchError is returned when a packet body consumes more bytes than
// its declared length; the stream position is now inside the next packet
// and the connection must be abandoned.
type SizeMismatchError struct {
	Expected int
	Got      int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("packet: size mismatch: declared %d bytes, body consumed %d", e.Expected, e.Got)
}

// UnknownVersionedIDError is returned when a version-dependent packet's ID
// function has no mapping for the given protocol version, on read.
type UnknownVersionedIDError struct {
	Protocol int32
}

func (e *UnknownVersionedIDError) Error() string {
	return fmt.Sprintf("packet: no packet id mapping for protocol %d", e.Protocol)
}

// InvalidPacketIDForProtocolError is the write-side counterpart of
// UnknownVersionedIDError.
type InvalidPacketIDForProtocolError struct {
	Protocol int32
}

func (e *InvalidPacketIDForProtocolError) Error() string {
	return fmt.Sprintf("packet: cannot resolve packet id for protocol %d", e.Protocol)
}
