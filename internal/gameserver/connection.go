package gameserver

import (
	"net"
	"sync"

	"github.com/google/uuid"
)

// Connection wraps one accepted TCP socket. Username and CurrentPin are
// only ever read or written while the owning Registry's mutex is held —
// they're part of the game state the registry serializes, not merely
// connection-local bookkeeping.
type Connection struct {
	ID   string
	conn net.Conn

	writeMu sync.Mutex

	Username   string
	CurrentPin string
}

// NewConnection wraps conn for use by the listener and dispatcher.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		ID:   uuid.New().String(),
		conn: conn,
	}
}

// Send writes a single already-framed (LF-terminated) payload. Safe for
// concurrent use — the broadcaster and a direct reply can race to write to
// the same connection.
func (c *Connection) Send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(payload)
	return err
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.conn.Close()
}
