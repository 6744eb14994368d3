package gameserver

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// endedGameTTL is how long an ended game stays queryable before sweepEnded
// removes it (spec §3).
const endedGameTTL = 120 * time.Second

// Registry owns every live Game. All reads and mutations of a Game must
// happen while the Registry's mutex is held — the Game itself has no
// locking of its own.
type Registry struct {
	mu    sync.Mutex
	games map[string]*Game
	rand  *rand.Rand
	conns map[*Connection]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		games: map[string]*Game{},
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		conns: map[*Connection]struct{}{},
	}
}

// addConn adds conn to the live connection index, used to resolve a pin's
// recipients for broadcasts. The listener calls this once a connection is
// accepted.
func (r *Registry) addConn(c *Connection) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
}

// dropConn removes conn from the live connection index. It does not touch
// any game state — a closed socket is not a departure (spec §4.6); only an
// explicit EXIT_GAME removes a player.
func (r *Registry) dropConn(c *Connection) {
	r.mu.Lock()
	delete(r.conns, c)
	r.mu.Unlock()
}

// connectionsByPin returns every live connection currently joined to pin.
// Callers must hold mu.
func (r *Registry) connectionsByPin(pin string) []*Connection {
	var out []*Connection
	for c := range r.conns {
		if c.CurrentPin == pin {
			out = append(out, c)
		}
	}
	return out
}

// allocatePin generates a 6-digit pin not currently in use. Callers must
// hold mu.
func (r *Registry) allocatePin() string {
	for {
		pin := fmt.Sprintf("%06d", r.rand.Intn(1_000_000))
		if _, exists := r.games[pin]; !exists {
			return pin
		}
	}
}

// get returns the game at pin, or nil. Callers must hold mu.
func (r *Registry) get(pin string) *Game {
	return r.games[pin]
}

// put registers g under its pin. Callers must hold mu.
func (r *Registry) put(g *Game) {
	r.games[g.Pin] = g
}

// remove deletes the game at pin. Callers must hold mu.
func (r *Registry) remove(pin string) {
	delete(r.games, pin)
}

// sweepEnded drops games that ended more than endedGameTTL ago. Callers
// must hold mu.
func (r *Registry) sweepEnded(now time.Time) {
	for pin, g := range r.games {
		if g.State == StateEnded && now.Sub(g.endedAt) > endedGameTTL {
			delete(r.games, pin)
		}
	}
}

// listPublicLobbies returns every lobby-state public game. Callers must
// hold mu.
func (r *Registry) listPublicLobbies() []*Game {
	var out []*Game
	for _, g := range r.games {
		if g.State == StateLobby && g.IsPublic {
			out = append(out, g)
		}
	}
	return out
}
