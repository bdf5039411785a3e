package hub

import (
	"sync"
	"time"

	"homebroker/internal/models"

	"github.com/gorilla/websocket"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = (socketPongWait * 9) / 10
)

// SocketStream is the WebSocket counterpart of EventStream. Each
// notification goes out as one JSON text message.
type SocketStream struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

func NewSocketStream(conn *websocket.Conn) *SocketStream {
	return &SocketStream{conn: conn, done: make(chan struct{})}
}

func (s *SocketStream) Deliver(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	return s.conn.WriteJSON(n)
}

func (s *SocketStream) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(socketWriteWait))
}

// Run pings the peer until the connection drops, discarding anything the
// client sends. It returns once the peer is gone; the caller then releases
// the registration and calls Close.
func (s *SocketStream) Run() {
	go s.readPump()

	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.ping(); err != nil {
				return
			}
		}
	}
}

func (s *SocketStream) readPump() {
	defer close(s.done)
	s.conn.SetReadDeadline(time.Now().Add(socketPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(socketPongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Close rejects further deliveries and closes the socket.
func (s *SocketStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(socketWriteWait))
	s.conn.Close()
}
