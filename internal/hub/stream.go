package hub

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"homebroker/internal/models"

	"github.com/gin-contrib/sse"
)

// eventStreamBuffer is how many notifications may wait for a slow reader
// before Deliver starts dropping them.
const eventStreamBuffer = 32

// ErrStreamBacklogged is returned by Deliver when the reader has fallen
// eventStreamBuffer notifications behind.
var ErrStreamBacklogged = errors.New("notification stream backlogged")

// EventStream writes server-sent event frames to one HTTP response.
//
// Publishers call Deliver from their own request goroutines; it only
// queues. The owning handler runs Run, the single writer, which sends
// queued notifications and keep-alives with a write deadline so a peer
// that stopped reading ends the stream instead of stalling it.
type EventStream struct {
	w         io.Writer
	rc        *http.ResponseController
	writeWait time.Duration
	send      chan models.Notification

	mu     sync.Mutex
	closed bool
}

func NewEventStream(w http.ResponseWriter, writeWait time.Duration) *EventStream {
	if writeWait <= 0 {
		writeWait = 10 * time.Second
	}
	return &EventStream{
		w:         w,
		rc:        http.NewResponseController(w),
		writeWait: writeWait,
		send:      make(chan models.Notification, eventStreamBuffer),
	}
}

// Deliver queues n for the writer without blocking.
func (s *EventStream) Deliver(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	select {
	case s.send <- *n:
		return nil
	default:
		return ErrStreamBacklogged
	}
}

// Run writes an initial "connected" comment, then queued notifications and
// a keep-alive comment every keepAlive until ctx is done (nil) or a write
// fails (the write error).
func (s *EventStream) Run(ctx context.Context, keepAlive time.Duration) error {
	if err := s.Comment("connected"); err != nil {
		return err
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-s.send:
			if err := s.write(func() error { return sse.Encode(s.w, sse.Event{Data: n}) }); err != nil {
				return err
			}
		case <-ticker.C:
			if err := s.Comment("keep-alive"); err != nil {
				return err
			}
		}
	}
}

// Comment sends a payload-less comment frame. Only the goroutine running
// Run may call it.
func (s *EventStream) Comment(text string) error {
	return s.write(func() error {
		_, err := io.WriteString(s.w, ": "+text+"\n\n")
		return err
	})
}

func (s *EventStream) write(frame func() error) error {
	if err := s.rc.SetWriteDeadline(time.Now().Add(s.writeWait)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	if err := frame(); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// Close rejects later deliveries. Queued ones are discarded.
func (s *EventStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
