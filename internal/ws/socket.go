package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Socket wraps a gorilla connection with a write lock so the broadcast
// path and the keepalive loop never interleave frames.
type Socket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewSocket wraps an upgraded connection.
func NewSocket(conn *websocket.Conn) *Socket {
	return &Socket{conn: conn}
}

// WriteJSON sends v as one JSON text frame.
func (s *Socket) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Close closes the underlying connection.
func (s *Socket) Close() error {
	return s.conn.Close()
}
