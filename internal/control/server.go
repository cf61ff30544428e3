package control

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/yamux"
)

// Logger is the subset of logging calls the control plane needs.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Server accepts long-lived operator connections and multiplexes
// request/response exchanges over each via yamux, the same library the
// upstream proxy uses to multiplex its own tunnel streams.
type Server struct {
	registry *Registry
	logger   Logger
}

// NewServer builds a Server backed by registry.
func NewServer(registry *Registry, logger Logger) *Server {
	return &Server{registry: registry, logger: logger}
}

// ListenAndServe accepts operator connections on addr until ctx is
// cancelled or the listener errors.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("control: listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("control: accept: %w", err)
		}
		go s.handleOperator(conn)
	}
}

func (s *Server) handleOperator(conn net.Conn) {
	defer conn.Close()

	sessionID := uuid.New().String()
	s.logger.Infof("control: operator session %s connected from %s", sessionID, conn.RemoteAddr())

	session, err := yamux.Server(conn, nil)
	if err != nil {
		s.logger.Warnf("control: session %s yamux setup failed: %v", sessionID, err)
		return
	}
	defer session.Close()

	for {
		stream, err := session.Accept()
		if err != nil {
			return
		}
		go s.handleStream(sessionID, stream)
	}
}

func (s *Server) handleStream(sessionID string, stream net.Conn) {
	defer stream.Close()

	r := bufio.NewReader(stream)
	line, err := r.ReadString('\n')
	if err != nil {
		return
	}
	cmd := strings.TrimSpace(line)

	var payload any
	switch cmd {
	case "list":
		payload = s.registry.List()
	case "stats":
		payload = s.registry.Stats()
	default:
		payload = map[string]string{"error": fmt.Sprintf("unknown command %q", cmd)}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warnf("control: session %s failed to marshal response: %v", sessionID, err)
		return
	}
	data = append(data, '\n')
	if _, err := stream.Write(data); err != nil {
		s.logger.Warnf("control: session %s write failed: %v", sessionID, err)
	}
}
