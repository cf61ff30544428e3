package packets

import (
	"bufio"
	"io"

	"mc-forward-proxy/internal/mcproto"
	"mc-forward-proxy/internal/packet"
)

// DisconnectID is the fixed packet ID of Disconnect in the login phase.
const DisconnectID byte = 0x00

// Disconnect is sent during the login phase to reject a client with a
// reason, before it has reached the play state.
type Disconnect struct {
	Reason string
}

func (d *Disconnect) ByteSize() int { return mcproto.StringSize(d.Reason) }

func (d *Disconnect) ReadBody(r *bufio.Reader, _ int) error {
	reason, err := mcproto.ReadString(r, mcproto.MaxStringLength)
	if err != nil {
		return err
	}
	d.Reason = reason
	return nil
}

func (d *Disconnect) WriteBody(w io.Writer) error {
	return mcproto.WriteString(w, d.Reason, mcproto.MaxStringLength)
}

// ReadDisconnect reads a Disconnect packet from r.
func ReadDisconnect(r *bufio.Reader) (*Disconnect, error) {
	d := &Disconnect{}
	err := packet.ReadManaged(r, DisconnectID, d)
	return d, err
}

// WriteDisconnect writes d to w.
func WriteDisconnect(w io.Writer, d *Disconnect) error {
	return packet.WriteManaged(w, DisconnectID, d)
}

// PlayDisconnect is the play-phase equivalent of Disconnect, used when the
// proxy must drop a connection after it has already reached the play state
// (its packet ID varies by protocol version, unlike the login-phase one).
type PlayDisconnect struct {
	Reason string
}

func (d *PlayDisconnect) ByteSize() int { return mcproto.StringSize(d.Reason) }

func (d *PlayDisconnect) ReadBody(r *bufio.Reader, _ int) error {
	reason, err := mcproto.ReadString(r, mcproto.MaxStringLength)
	if err != nil {
		return err
	}
	d.Reason = reason
	return nil
}

func (d *PlayDisconnect) WriteBody(w io.Writer) error {
	return mcproto.WriteString(w, d.Reason, mcproto.MaxStringLength)
}

// PlayDisconnectID maps a protocol version to the play-phase Disconnect
// packet ID for that version. Protocol 765 (1.20.1) is carried as an
// explicit exception beyond the otherwise-unmapped tail of the piecewise
// function; see DESIGN.md.
func PlayDisconnectID(protocol int32) (id byte, ok bool) {
	switch {
	case protocol < 67:
		return 0x40, true
	case protocol < 80:
		return 0x19, true
	case protocol < 318:
		return 0x1A, true
	case protocol < 332:
		return 0x1B, true
	case protocol <= 340:
		return 0x1A, true
	case protocol == 765:
		return 0x1A, true
	default:
		return 0, false
	}
}

// ReadPlayDisconnect reads a PlayDisconnect packet from r for the given
// protocol version.
func ReadPlayDisconnect(r *bufio.Reader, protocol int32) (*PlayDisconnect, error) {
	d := &PlayDisconnect{}
	err := packet.ReadVersionDependent(r, PlayDisconnectID, protocol, d)
	return d, err
}

// WritePlayDisconnect writes d to w for the given protocol version.
func WritePlayDisconnect(w io.Writer, protocol int32, d *PlayDisconnect) error {
	return packet.WriteVersionDependent(w, PlayDisconnectID, protocol, d)
}

// disconnectJSON renders a flat red-text disconnect reason as the Minecraft
// chat-component JSON the Disconnect/PlayDisconnect packets carry. No spaces
// are emitted between tokens.
func disconnectJSON(message string) string {
	var b []byte
	b = append(b, `{"text":"`...)
	b = append(b, escapeJSONString(message)...)
	b = append(b, `","color":"red"}`...)
	return string(b)
}

func escapeJSONString(s string) string {
	out := make([]byte, 0, len(s)+2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			out = append(out, '\\', c)
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// NewDisconnect builds a login-phase Disconnect with a flat red-text reason.
func NewDisconnect(message string) *Disconnect {
	return &Disconnect{Reason: disconnectJSON(message)}
}

// NewPlayDisconnect builds a play-phase PlayDisconnect with a flat red-text
// reason.
func NewPlayDisconnect(message string) *PlayDisconnect {
	return &PlayDisconnect{Reason: disconnectJSON(message)}
}
