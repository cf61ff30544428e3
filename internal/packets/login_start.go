package packets

import (
	"bufio"
	"io"

	"mc-forward-proxy/internal/mcproto"
	"mc-forward-proxy/internal/packet"
)

// LoginStartID is the fixed packet ID of LoginStart.
const LoginStartID byte = 0x00

// LoginStart is sent by the client immediately after requesting the login
// state. The proxy overwrites Username with the authoritative value carried
// in the Velocity plugin response before forwarding it to the backend.
type LoginStart struct {
	Username string
}

func (l *LoginStart) ByteSize() int { return mcproto.StringSize(l.Username) }

func (l *LoginStart) ReadBody(r *bufio.Reader, _ int) error {
	u, err := mcproto.ReadString(r, mcproto.MaxUsernameLength)
	if err != nil {
		return err
	}
	l.Username = u
	return nil
}

func (l *LoginStart) WriteBody(w io.Writer) error {
	return mcproto.WriteString(w, l.Username, mcproto.MaxUsernameLength)
}

// ReadLoginStart reads a LoginStart packet from r.
func ReadLoginStart(r *bufio.Reader) (*LoginStart, error) {
	l := &LoginStart{}
	err := packet.ReadManaged(r, LoginStartID, l)
	return l, err
}

// WriteLoginStart writes l to w.
func WriteLoginStart(w io.Writer, l *LoginStart) error {
	return packet.WriteManaged(w, LoginStartID, l)
}
