package packets

import (
	"io"

	"mc-forward-proxy/internal/mcproto"
	"mc-forward-proxy/internal/packet"
)

// VelocityLoginPluginRequestID is the fixed packet ID of
// VelocityLoginPluginRequest.
const VelocityLoginPluginRequestID byte = 0x04

// velocityChannel is the Velocity modern-forwarding plugin message channel.
const velocityChannel = "velocity:player_info"

// VelocityLoginPluginRequest is written by the proxy to ask the client for
// its signed forwarding payload. MessageID carries the connection ID so the
// eventual response can be correlated back to this request.
type VelocityLoginPluginRequest struct {
	MessageID int32
}

// NewVelocityLoginPluginRequest builds a request correlated by connectionID.
func NewVelocityLoginPluginRequest(connectionID int32) *VelocityLoginPluginRequest {
	return &VelocityLoginPluginRequest{MessageID: connectionID}
}

func (v *VelocityLoginPluginRequest) ByteSize() int {
	return mcproto.VarInt(v.MessageID).Len() + mcproto.StringSize(velocityChannel) + 1
}

func (v *VelocityLoginPluginRequest) WriteBody(w io.Writer) error {
	if err := mcproto.VarInt(v.MessageID).WriteTo(w); err != nil {
		return err
	}
	if err := mcproto.WriteString(w, velocityChannel, mcproto.MaxStringLength); err != nil {
		return err
	}
	_, err := w.Write([]byte{0x01})
	return err
}

// WriteVelocityLoginPluginRequest writes v to w.
func WriteVelocityLoginPluginRequest(w io.Writer, v *VelocityLoginPluginRequest) error {
	return packet.WriteManaged(w, VelocityLoginPluginRequestID, v)
}
