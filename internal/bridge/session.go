// Package bridge implements the HTTP/SSE front door that translates
// synchronous REST calls into the game server's asynchronous TCP frames.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ClaytonMcArthur/not-kahoot/internal/wireproto"
)

// ErrTimeout is returned when a subscription doesn't see a matching frame
// before its deadline.
var ErrTimeout = errors.New("bridge: timed out waiting for a matching frame")

// ErrNotConnected is returned when an operation needs a session that was
// never established via Connect or has since disconnected.
var ErrNotConnected = errors.New("bridge: no connected session for this user")

// subscribeTimeout is how long a correlated HTTP handler waits for its
// reply frame (spec §4.7/§5).
const subscribeTimeout = 5 * time.Second

type subscription struct {
	id        string
	matchType string
	predicate func(*wireproto.Frame) bool
	result    chan *wireproto.Frame
}

// Session owns one TCP connection to the game server on behalf of a single
// username. Its reader goroutine fans every decoded frame out to the SSE
// hub and to any pending one-shot subscriptions.
type Session struct {
	username string
	conn     net.Conn
	log      *slog.Logger
	hub      *Hub

	mu      sync.Mutex
	subs    map[string]*subscription
	closed  bool
	closeCh chan struct{}
}

func newSession(username string, conn net.Conn, hub *Hub, log *slog.Logger) *Session {
	s := &Session{
		username: username,
		conn:     conn,
		log:      log,
		hub:      hub,
		subs:     map[string]*subscription{},
		closeCh:  make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// connected reports whether the session's reader loop is still running.
func (s *Session) connected() bool {
	select {
	case <-s.closeCh:
		return false
	default:
		return true
	}
}

// send writes a single frame onto the underlying TCP connection.
func (s *Session) send(v any) error {
	return wireproto.WriteFrame(s.conn, v)
}

// subscribe registers a one-shot predicate waiting for the next frame of
// matchType satisfying predicate, or ErrTimeout after subscribeTimeout.
func (s *Session) subscribe(ctx context.Context, matchType string, predicate func(*wireproto.Frame) bool) (*wireproto.Frame, error) {
	sub := &subscription{
		id:        uuid.New().String(),
		matchType: matchType,
		predicate: predicate,
		result:    make(chan *wireproto.Frame, 1),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	s.subs[sub.id] = sub
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, sub.id)
		s.mu.Unlock()
	}()

	timer := time.NewTimer(subscribeTimeout)
	defer timer.Stop()

	select {
	case frame := <-sub.result:
		return frame, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closeCh:
		return nil, ErrNotConnected
	}
}

func (s *Session) readLoop() {
	defer close(s.closeCh)
	reader := wireproto.NewReader(s.conn)
	for {
		data, err := reader.Next()
		if data != nil {
			s.dispatch(data)
		}
		if err != nil {
			s.log.Info("game-server session closed", "username", s.username, "error", err)
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			return
		}
	}
}

func (s *Session) dispatch(data []byte) {
	frame, err := wireproto.ParseFrame(data)
	if err != nil {
		s.log.Warn("malformed frame from game server", "username", s.username, "error", err)
		return
	}

	s.hub.Publish(s.username, data)

	s.mu.Lock()
	var matched []*subscription
	for _, sub := range s.subs {
		if sub.matchType == frame.Type && (sub.predicate == nil || sub.predicate(frame)) {
			matched = append(matched, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range matched {
		select {
		case sub.result <- frame:
		default:
		}
	}
}

func (s *Session) close() {
	_ = s.conn.Close()
}

// dialSession opens a new TCP connection to the game server, registers the
// given username, and waits for REGISTER_OK before returning.
func dialSession(ctx context.Context, addr, username string, hub *Hub, log *slog.Logger) (*Session, error) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing game server: %w", err)
	}

	sess := newSession(username, conn, hub, log)
	if err := sess.send(map[string]any{"type": "REGISTER", "username": username}); err != nil {
		sess.close()
		return nil, fmt.Errorf("sending REGISTER: %w", err)
	}

	frame, err := sess.subscribe(ctx, "REGISTER_OK", func(f *wireproto.Frame) bool {
		return f.String("username") == username
	})
	if err != nil {
		sess.close()
		return nil, fmt.Errorf("awaiting REGISTER_OK: %w", err)
	}
	_ = frame

	return sess, nil
}
