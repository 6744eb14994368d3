package gameserver

import (
	"errors"
	"log/slog"
	"net"

	"github.com/ClaytonMcArthur/not-kahoot/internal/wireproto"
)

// Listener accepts TCP connections and runs one reader loop per
// connection, feeding decoded frames to a Dispatcher and delivering the
// resulting Effects through a Broadcaster.
type Listener struct {
	ln          net.Listener
	dispatcher  *Dispatcher
	broadcaster *Broadcaster
	registry    *Registry
	log         *slog.Logger
}

// NewListener wraps an already-bound net.Listener.
func NewListener(ln net.Listener, registry *Registry, dispatcher *Dispatcher, broadcaster *Broadcaster, log *slog.Logger) *Listener {
	return &Listener{ln: ln, dispatcher: dispatcher, broadcaster: broadcaster, registry: registry, log: log}
}

// Serve accepts connections until the listener is closed.
func (l *Listener) Serve() error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go l.serveConn(conn)
	}
}

func (l *Listener) serveConn(netConn net.Conn) {
	conn := NewConnection(netConn)
	l.registry.addConn(conn)
	l.log.Info("connection accepted", "connection_id", conn.ID, "remote", netConn.RemoteAddr())

	defer func() {
		// A closed socket is not a departure: the bridge may multiplex many
		// player identities over one TCP connection, so only EXIT_GAME
		// removes a player from a game (spec'd behavior for the listener).
		l.registry.dropConn(conn)
		conn.Close()
		l.log.Info("connection closed", "connection_id", conn.ID)
	}()

	reader := wireproto.NewReader(netConn)
	for {
		data, err := reader.Next()
		if data != nil {
			l.dispatchLine(conn, data)
		}
		if err != nil {
			if errors.Is(err, wireproto.ErrHTTPProbe) {
				l.log.Warn("rejecting HTTP request on game port", "connection_id", conn.ID)
			}
			return
		}
	}
}

func (l *Listener) dispatchLine(conn *Connection, data []byte) {
	frame, err := wireproto.ParseFrame(data)
	if err != nil {
		l.log.Warn("dropping malformed frame", "connection_id", conn.ID, "error", err)
		return
	}
	effects := l.dispatcher.Handle(conn, frame)
	l.broadcaster.Run(effects)
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	return l.ln.Close()
}
