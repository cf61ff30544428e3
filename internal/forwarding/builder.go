// Package forwarding builds the Velocity modern-forwarding payload string
// and verifies the HMAC signature a client attaches to it.
package forwarding

import (
	"errors"
	"fmt"
	"strings"

	"mc-forward-proxy/internal/mcproto"
	"mc-forward-proxy/internal/packets"
)

// ErrTooLong is returned when the built forwarding string would not fit in
// an MCString<32767>.
var ErrTooLong = errors.New("forwarding: server_address with forwarding data exceeds MCString bound")

// Build embeds the response-supplied client address, player UUID, and
// profile properties into serverAddress, returning the replacement string to
// write into the rewritten Handshake's server_address field.
func Build(serverAddress, clientAddress string, playerUUID mcproto.UUID, properties []packets.Property) (string, error) {
	var b strings.Builder
	b.WriteString(serverAddress)
	b.WriteByte(0)
	b.WriteString(clientAddress)
	b.WriteByte(0)
	b.WriteString(playerUUID.Hex())

	if len(properties) > 0 {
		b.WriteByte(0)
		b.WriteByte('[')
		for i, p := range properties {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(`{"name":"`)
			b.WriteString(p.Name)
			b.WriteString(`","value":"`)
			b.WriteString(p.Value)
			b.WriteByte('"')
			if p.Signature != nil {
				b.WriteString(`,"signature":"`)
				b.WriteString(*p.Signature)
				b.WriteByte('"')
			}
			b.WriteByte('}')
		}
		b.WriteByte(']')
	}

	result := b.String()
	if len(result) > mcproto.MaxStringLength {
		return "", fmt.Errorf("%w: got %d bytes", ErrTooLong, len(result))
	}
	return result, nil
}
