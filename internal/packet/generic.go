package packet

import (
	"bufio"
	"io"
)

// GenericPacket holds an opaque, already-framed packet body. It is used both
// as the deferred payload of an InvalidPacketIDError and to carry client
// packets received while the connection state machine awaits the Velocity
// plugin response.
type GenericPacket struct {
	Data []byte
}

// ByteSize implements Body.
func (g *GenericPacket) ByteSize() int { return len(g.Data) }

// ReadBody implements BodyReader: it simply captures bodyLength raw bytes.
func (g *GenericPacket) ReadBody(r *bufio.Reader, bodyLength int) error {
	data := make([]byte, bodyLength)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	g.Data = data
	return nil
}

// WriteBody implements BodyWriter: the stored bytes are emitted verbatim.
// The length envelope is added uniformly by the framing write functions, not
// here, so no length prefix is duplicated.
func (g *GenericPacket) WriteBody(w io.Writer) error {
	_, err := w.Write(g.Data)
	return err
}
