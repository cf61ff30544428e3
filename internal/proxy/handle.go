package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"mc-forward-proxy/internal/forwarding"
	"mc-forward-proxy/internal/packet"
	"mc-forward-proxy/internal/packets"
)

// Handle drives the full per-connection protocol state machine on a Paired
// connection: handshake, status passthrough, login plugin-response exchange,
// HMAC verification, rewritten-packet forwarding, and opaque bidirectional
// splicing until either side closes or ctx is cancelled.
func (c *Connection) Handle(ctx context.Context, secret []byte) {
	defer c.Close()

	hs, err := packets.ReadHandshake(c.clientReader)
	if err != nil {
		c.Logger.Warnf("connection %d: handshake read failed: %v", c.ID, err)
		return
	}

	switch hs.NextState {
	case packets.NextStateStatus:
		c.handleStatus(ctx, hs)
	case packets.NextStateTransfer:
		c.Logger.Debugf("connection %d: transfer requested, unsupported, closing", c.ID)
	case packets.NextStateLogin:
		c.handleLogin(ctx, secret, hs)
	default:
		c.Logger.Warnf("connection %d: unknown next_state %d", c.ID, hs.NextState)
	}
}

func (c *Connection) handleStatus(ctx context.Context, hs *packets.Handshake) {
	c.reportPhase("status_forwarding")
	if err := packets.WriteHandshake(c.Backend, hs); err != nil {
		c.Logger.Warnf("connection %d: status handshake forward failed: %v", c.ID, err)
		return
	}
	c.splice(ctx, hs.ProtocolVersion)
}

func (c *Connection) handleLogin(ctx context.Context, secret []byte, hs *packets.Handshake) {
	ls, err := packets.ReadLoginStart(c.clientReader)
	if err != nil {
		c.Logger.Warnf("connection %d: login start read failed: %v", c.ID, err)
		return
	}

	c.reportPhase("await_plugin_response")
	req := packets.NewVelocityLoginPluginRequest(int32(c.ID))
	if err := packets.WriteVelocityLoginPluginRequest(c.Client, req); err != nil {
		c.Logger.Warnf("connection %d: plugin request write failed: %v", c.ID, err)
		return
	}

	resp, buffered, err := c.awaitPluginResponse()
	if err != nil {
		c.Logger.Warnf("connection %d: await plugin response failed: %v", c.ID, err)
		return
	}

	if resp.MessageID != int32(c.ID) {
		c.Logger.Warnf("connection %d: plugin response message_id %d does not match connection id", c.ID, resp.MessageID)
		return
	}

	if !forwarding.Verify(secret, resp.RawPayload, resp.Signature[:]) {
		d := packets.NewDisconnect("Failed to verify your identity, please rejoin the server")
		if err := packets.WriteDisconnect(c.Client, d); err != nil {
			c.Logger.Warnf("connection %d: failed to write hmac-failure disconnect: %v", c.ID, err)
		}
		return
	}

	addr, err := forwarding.Build(hs.ServerAddress, resp.ClientAddress, resp.PlayerUUID, resp.Properties)
	if err != nil {
		c.Logger.Warnf("connection %d: forwarding data build failed: %v", c.ID, err)
		return
	}
	hs.ServerAddress = addr
	ls.Username = resp.Username

	if err := packets.WriteHandshake(c.Backend, hs); err != nil {
		c.Logger.Warnf("connection %d: rewritten handshake write failed: %v", c.ID, err)
		return
	}
	if err := packets.WriteLoginStart(c.Backend, ls); err != nil {
		c.Logger.Warnf("connection %d: rewritten login start write failed: %v", c.ID, err)
		return
	}
	for _, g := range buffered {
		if err := packet.WriteManual(c.Backend, g); err != nil {
			c.Logger.Warnf("connection %d: buffered packet forward failed: %v", c.ID, err)
			return
		}
	}

	c.reportPhase("splicing")
	c.splice(ctx, hs.ProtocolVersion)
}

// awaitPluginResponse reads client packets until the Velocity plugin
// response arrives, buffering every other packet in arrival order so it can
// be replayed to the backend afterward.
func (c *Connection) awaitPluginResponse() (*packets.VelocityLoginPluginResponse, []*packet.GenericPacket, error) {
	var buffered []*packet.GenericPacket
	for {
		resp, err := packets.ReadVelocityLoginPluginResponse(c.clientReader)
		if err == nil {
			return resp, buffered, nil
		}

		var invalidID *packet.InvalidPacketIDError
		if errors.As(err, &invalidID) {
			buffered = append(buffered, invalidID.Packet)
			continue
		}

		var sizeMismatch *packet.SizeMismatchError
		if errors.As(err, &sizeMismatch) {
			// Only an over-read (consumed more than declared) reaches
			// here as an error; under-reads are already drained and
			// reported as success by the framer.
			return nil, nil, fmt.Errorf("plugin response desynchronized: %w", err)
		}

		return nil, nil, err
	}
}

// spliceResult carries an io.Copy direction's outcome back to splice.
type spliceResult struct {
	err error
}

// splice enters the opaque bidirectional forwarding phase, copying bytes
// client<->backend until either direction terminates or ctx is cancelled.
// It does not wait for both directions: as soon as one returns (EOF or
// error), the other side's write half is half-closed to propagate the
// shutdown, and splice returns without blocking on the still-open peer
// forever. On cancellation it attempts a best-effort PlayDisconnect before
// returning.
func (c *Connection) splice(ctx context.Context, protocolVersion int32) {
	clientToBackend := make(chan spliceResult, 1)
	backendToClient := make(chan spliceResult, 1)

	go func() {
		counted := &countingWriter{w: c.Backend, report: func(n int64) { c.reportBytes(uint64(n), 0) }}
		_, err := io.Copy(counted, c.clientReader)
		clientToBackend <- spliceResult{err: err}
	}()
	go func() {
		counted := &countingWriter{w: c.Client, report: func(n int64) { c.reportBytes(0, uint64(n)) }}
		_, err := io.Copy(counted, c.Backend)
		backendToClient <- spliceResult{err: err}
	}()

	select {
	case <-clientToBackend:
		halfCloseWrite(c.Backend)
	case <-backendToClient:
		halfCloseWrite(c.Client)
	case <-ctx.Done():
		c.sendShutdownDisconnect(protocolVersion)
	}
}

// countingWriter wraps an io.Writer, reporting each successful write's byte
// count so the control plane can observe splicing progress as it happens
// rather than only once a direction finishes.
type countingWriter struct {
	w      io.Writer
	report func(n int64)
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 && cw.report != nil {
		cw.report(int64(n))
	}
	return n, err
}

func (c *Connection) sendShutdownDisconnect(protocolVersion int32) {
	d := packets.NewPlayDisconnect("The Proxy is shutting down")
	var buf bytes.Buffer
	if err := packets.WritePlayDisconnect(&buf, protocolVersion, d); err != nil {
		var unsupported *packet.InvalidPacketIDForProtocolError
		if errors.As(err, &unsupported) {
			c.Logger.Warnf("connection %d: no play disconnect mapping for protocol %d, skipping", c.ID, protocolVersion)
			return
		}
		c.Logger.Warnf("connection %d: failed to build shutdown disconnect: %v", c.ID, err)
		return
	}
	if _, err := c.Client.Write(buf.Bytes()); err != nil {
		c.Logger.Warnf("connection %d: best-effort shutdown disconnect write failed: %v", c.ID, err)
	}
}
