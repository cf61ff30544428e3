// Command mc-forward-proxy is a transparent TCP reverse proxy that injects
// Velocity-style modern forwarding identity into the Minecraft handshake,
// authenticated with a shared HMAC secret.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"mc-forward-proxy/internal/config"
	"mc-forward-proxy/internal/control"
	"mc-forward-proxy/internal/logx"
	"mc-forward-proxy/internal/proxy"
)

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, warning, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, config.ErrCreatedNew) {
			log.Println(err)
			return
		}
		log.Fatal(err)
	}

	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	logger := logx.NewDefault(level)
	if warning != "" {
		logger.Warnf("%s", warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trusted := make(map[string]struct{}, len(cfg.TrustedIPs))
	for _, ip := range cfg.TrustedIPs {
		trusted[ip] = struct{}{}
	}

	registry := control.NewRegistry()
	if cfg.ControlAddress != "" {
		controlServer := control.NewServer(registry, logger)
		go func() {
			if err := controlServer.ListenAndServe(ctx, cfg.ControlAddress); err != nil {
				logger.Warnf("control plane stopped: %v", err)
			}
		}()
	}

	listener, err := net.Listen("tcp", cfg.BindAddress)
	if err != nil {
		log.Fatalf("mc-forward-proxy: bind %s: %v", cfg.BindAddress, err)
	}
	logger.Infof("listening on %s, forwarding to %s", cfg.BindAddress, cfg.BackendAddress)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	secret := []byte(cfg.ForwardingSecret)
	var nextID uint32

	for {
		client, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Infof("shutting down")
				return
			}
			logger.Warnf("accept failed: %v", err)
			continue
		}

		id := atomic.AddUint32(&nextID, 1)
		connLogger := logger.With(connectionPrefix(id, client.RemoteAddr()))
		registry.Open(id, client.RemoteAddr().String())

		go acceptConnection(ctx, cfg, trusted, registry, connLogger, id, client, secret)
	}
}

func acceptConnection(
	ctx context.Context,
	cfg *config.Config,
	trusted map[string]struct{},
	registry *control.Registry,
	logger *logx.Logger,
	id uint32,
	client net.Conn,
	secret []byte,
) {
	defer registry.Close(id)

	conn, err := proxy.Initiate(id, client, logger)
	if err != nil {
		logger.Warnf("initiate failed: %v", err)
		client.Close()
		return
	}
	conn.OnPhase = func(phase string) { registry.SetPhase(id, phase) }
	conn.OnBytes = func(clientToBackend, backendToClient uint64) {
		registry.AddBytes(id, clientToBackend, backendToClient)
	}

	if len(trusted) > 0 && !isTrusted(client.RemoteAddr(), trusted) {
		logger.Warnf("untrusted peer, rejecting")
		conn.RejectUntrusted()
		return
	}

	backend, err := net.Dial("tcp", cfg.BackendAddress)
	if err != nil {
		logger.Warnf("backend dial failed: %v", err)
		conn.Close()
		return
	}
	registry.SetBackend(id, cfg.BackendAddress)

	if err := conn.WithBackend(backend); err != nil {
		logger.Warnf("pairing with backend failed: %v", err)
		conn.Close()
		return
	}

	registry.SetPhase(id, control.PhaseAwaitLogin)
	conn.Handle(ctx, secret)
	registry.SetPhase(id, control.PhaseTerminated)
}

func isTrusted(addr net.Addr, trusted map[string]struct{}) bool {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	_, ok := trusted[host]
	return ok
}

func connectionPrefix(id uint32, addr net.Addr) string {
	return "[conn " + strconv.FormatUint(uint64(id), 10) + " " + addr.String() + "]"
}
