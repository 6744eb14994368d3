package gameserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
)

// Server owns the TCP listener for the authoritative game protocol.
type Server struct {
	addr     string
	log      *slog.Logger
	registry *Registry
	listener *Listener
}

// New builds a Server that will listen on host:port once Run is called.
func New(host string, port int, log *slog.Logger) *Server {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, log)
	broadcaster := NewBroadcaster(log)
	return &Server{
		addr:     fmt.Sprintf("%s:%d", host, port),
		log:      log,
		registry: registry,
		// listener is created in Run, once bound.
		listener: &Listener{dispatcher: dispatcher, broadcaster: broadcaster, registry: registry, log: log},
	}
}

// Run binds the listening socket and serves until Shutdown closes it.
func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("binding game server on %s: %w", s.addr, err)
	}
	s.listener.ln = ln
	s.log.Info("game server listening", "addr", s.addr)

	return s.listener.Serve()
}

// Shutdown stops accepting new connections. In-flight connections are left
// to finish or be closed by their own clients.
func (s *Server) Shutdown() error {
	if s.listener == nil || s.listener.ln == nil {
		return nil
	}
	return s.listener.Close()
}
