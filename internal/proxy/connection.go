package proxy

import (
	"bufio"
	"fmt"
	"net"

	"mc-forward-proxy/internal/packets"
)

// Connection owns the client socket (and, once paired, the backend socket)
// for the lifetime of one accepted Minecraft connection. Each task owns its
// sockets exclusively and closes them on every exit path.
type Connection struct {
	ID      uint32
	Client  net.Conn
	Backend net.Conn

	clientReader *bufio.Reader

	Logger Logger

	// OnPhase, if set, is called at every state-machine phase transition
	// with a short phase name. It exists so an observer (the control
	// plane) can mirror connection state without the state machine itself
	// depending on it.
	OnPhase func(phase string)

	// OnBytes, if set, is called during splicing with the byte counts
	// copied since the last call, one direction non-zero per call. Like
	// OnPhase, it decouples the state machine from the control plane.
	OnBytes func(clientToBackend, backendToClient uint64)
}

func (c *Connection) reportPhase(phase string) {
	if c.OnPhase != nil {
		c.OnPhase(phase)
	}
}

func (c *Connection) reportBytes(clientToBackend, backendToClient uint64) {
	if c.OnBytes != nil {
		c.OnBytes(clientToBackend, backendToClient)
	}
}

// Initiate wraps an accepted client socket, disabling Nagle's algorithm so
// small login-phase packets are not delayed.
func Initiate(id uint32, client net.Conn, logger Logger) (*Connection, error) {
	if err := setNoDelay(client); err != nil {
		return nil, fmt.Errorf("proxy: disable nagle on client socket: %w", err)
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Connection{
		ID:           id,
		Client:       client,
		clientReader: bufio.NewReader(client),
		Logger:       logger,
	}, nil
}

// WithBackend attaches an already-dialed backend socket, also disabling Nagle
// on it, producing a Paired connection ready for Handle.
func (c *Connection) WithBackend(backend net.Conn) error {
	if err := setNoDelay(backend); err != nil {
		return fmt.Errorf("proxy: disable nagle on backend socket: %w", err)
	}
	c.Backend = backend
	return nil
}

func setNoDelay(conn net.Conn) error {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	return tcp.SetNoDelay(true)
}

// halfCloseWrite shuts down the write half of conn, propagating an EOF to
// its peer without tearing down the whole socket. It is a no-op for
// connection types that don't support a half-close (e.g. net.Pipe, used by
// tests), matching setNoDelay's fallback pattern.
func halfCloseWrite(conn net.Conn) {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	tcp.CloseWrite()
}

// RejectUntrusted reads only the client's Handshake and, if it requested the
// login state, sends a rejection Disconnect; status/transfer requests are
// closed silently with no response packet. The client socket is always shut
// down on return.
func (c *Connection) RejectUntrusted() {
	defer c.Client.Close()

	hs, err := packets.ReadHandshake(c.clientReader)
	if err != nil {
		c.Logger.Warnf("connection %d: untrusted peer handshake read failed: %v", c.ID, err)
		return
	}

	if hs.NextState != packets.NextStateLogin {
		return
	}

	d := packets.NewDisconnect("You are not allowed to connect to this server directly!")
	if err := packets.WriteDisconnect(c.Client, d); err != nil {
		c.Logger.Warnf("connection %d: failed to write rejection disconnect: %v", c.ID, err)
	}
}

// Close shuts down both sockets. Safe to call multiple times.
func (c *Connection) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
	if c.Backend != nil {
		c.Backend.Close()
	}
}
