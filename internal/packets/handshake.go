// Package packets implements the fixed set of Minecraft login-phase packet
// bodies the proxy needs to understand: Handshake, LoginStart, the Velocity
// modern-forwarding plugin request/response pair, and the two disconnect
// variants.
package packets

import (
	"bufio"
	"encoding/binary"
	"io"

	"mc-forward-proxy/internal/mcproto"
	"mc-forward-proxy/internal/packet"
)

// HandshakeID is the fixed packet ID of Handshake in every protocol phase.
const HandshakeID byte = 0x00

// Handshake is the client's first packet on every connection.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

// Next-state values carried in Handshake.NextState.
const (
	NextStateStatus   = 1
	NextStateLogin    = 2
	NextStateTransfer = 3
)

func (h *Handshake) ByteSize() int {
	return mcproto.VarInt(h.ProtocolVersion).Len() + mcproto.StringSize(h.ServerAddress) + 2 + mcproto.VarInt(h.NextState).Len()
}

func (h *Handshake) ReadBody(r *bufio.Reader, _ int) error {
	pv, err := mcproto.ReadVarInt(r)
	if err != nil {
		return err
	}
	addr, err := mcproto.ReadString(r, mcproto.MaxStringLength)
	if err != nil {
		return err
	}
	var portBuf [2]byte
	if _, err := io.ReadFull(r, portBuf[:]); err != nil {
		return err
	}
	ns, err := mcproto.ReadVarInt(r)
	if err != nil {
		return err
	}

	h.ProtocolVersion = int32(pv)
	h.ServerAddress = addr
	h.ServerPort = binary.BigEndian.Uint16(portBuf[:])
	h.NextState = int32(ns)
	return nil
}

func (h *Handshake) WriteBody(w io.Writer) error {
	if err := mcproto.VarInt(h.ProtocolVersion).WriteTo(w); err != nil {
		return err
	}
	if err := mcproto.WriteString(w, h.ServerAddress, mcproto.MaxStringLength); err != nil {
		return err
	}
	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], h.ServerPort)
	if _, err := w.Write(portBuf[:]); err != nil {
		return err
	}
	return mcproto.VarInt(h.NextState).WriteTo(w)
}

// ReadHandshake reads a Handshake packet from r.
func ReadHandshake(r *bufio.Reader) (*Handshake, error) {
	h := &Handshake{}
	err := packet.ReadManaged(r, HandshakeID, h)
	return h, err
}

// WriteHandshake writes h to w.
func WriteHandshake(w io.Writer, h *Handshake) error {
	return packet.WriteManaged(w, HandshakeID, h)
}
