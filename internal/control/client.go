package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"

	"github.com/hashicorp/yamux"
)

// Query opens a new yamux stream over an established operator session and
// sends cmd, decoding the JSON response into v. It exists primarily to
// exercise Server from tests over an in-memory net.Pipe, without requiring a
// real TCP round trip.
func Query(session *yamux.Session, cmd string, v any) error {
	stream, err := session.Open()
	if err != nil {
		return fmt.Errorf("control: open stream: %w", err)
	}
	defer stream.Close()

	if _, err := fmt.Fprintf(stream, "%s\n", cmd); err != nil {
		return fmt.Errorf("control: write command: %w", err)
	}

	r := bufio.NewReader(stream)
	line, err := r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("control: read response: %w", err)
	}
	return json.Unmarshal([]byte(line), v)
}

// DialOperatorSession upgrades a raw connection (e.g. one half of a
// net.Pipe, or a real TCP dial) into a yamux client session matching the
// Server's yamux.Server upgrade.
func DialOperatorSession(conn net.Conn) (*yamux.Session, error) {
	return yamux.Client(conn, nil)
}
