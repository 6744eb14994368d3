package bridge

import (
	"context"
	"log/slog"
	"sync"
)

// Pool maintains one game-server Session per username, per spec §4.7.
type Pool struct {
	gameServerAddr string
	hub            *Hub
	log            *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewPool returns a Pool that dials gameServerAddr on demand.
func NewPool(gameServerAddr string, hub *Hub, log *slog.Logger) *Pool {
	return &Pool{
		gameServerAddr: gameServerAddr,
		hub:            hub,
		log:            log,
		sessions:       map[string]*Session{},
	}
}

// Lookup returns the live session for username without creating one,
// reporting ErrNotConnected if none exists or the existing one has
// disconnected. Every game-operation handler except /api/connect must use
// this rather than Connect, so a caller who never connected gets a "Not
// connected" error instead of an implicitly created session.
func (p *Pool) Lookup(username string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, ok := p.sessions[username]
	if !ok || !existing.connected() {
		return nil, ErrNotConnected
	}
	return existing, nil
}

// Connect returns the session for username, reusing a live one, replacing
// a disconnected one, or dialing a fresh one. Only /api/connect should call
// this; every other handler uses Lookup so a missing session surfaces as
// ErrNotConnected instead of silently dialing one.
func (p *Pool) Connect(ctx context.Context, username string) (*Session, error) {
	p.mu.Lock()
	if existing, ok := p.sessions[username]; ok {
		if existing.connected() {
			p.mu.Unlock()
			return existing, nil
		}
		existing.close()
		delete(p.sessions, username)
	}
	p.mu.Unlock()

	sess, err := dialSession(ctx, p.gameServerAddr, username, p.hub, p.log)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.sessions[username] = sess
	p.mu.Unlock()

	return sess, nil
}
