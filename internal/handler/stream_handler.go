package handler

import (
	"net/http"
	"time"

	"homebroker/internal/hub"
	"homebroker/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/op/go-logging"
)

var streamLog = logging.MustGetLogger("stream")

var notificationUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler serves the per-user live notification channels.
type StreamHandler struct {
	registry  *hub.Registry
	keepAlive time.Duration
	writeWait time.Duration
}

func NewStreamHandler(registry *hub.Registry, keepAlive, writeWait time.Duration) *StreamHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &StreamHandler{registry: registry, keepAlive: keepAlive, writeWait: writeWait}
}

// Stream holds a server-sent events response open for the session user.
// The user ID comes from the session only. The handler returns, and the
// registration is released, when the request context is cancelled.
func (h *StreamHandler) Stream(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	hdr := c.Writer.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	stream := hub.NewEventStream(c.Writer, h.writeWait)
	regID := h.registry.Register(userID, stream.Deliver)
	defer func() {
		h.registry.Release(userID, regID)
		stream.Close()
	}()
	streamLog.Debugf("stream opened for user %s", userID)

	if err := stream.Run(c.Request.Context(), h.keepAlive); err != nil {
		streamLog.Debugf("stream for user %s dropped: %v", userID, err)
		return
	}
	streamLog.Debugf("stream closed for user %s", userID)
}

// Socket is the WebSocket variant of Stream for clients without
// EventSource. It occupies the same per-user registry slot.
func (h *StreamHandler) Socket(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	conn, err := notificationUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	socket := hub.NewSocketStream(conn)
	regID := h.registry.Register(userID, socket.Deliver)
	streamLog.Debugf("socket opened for user %s", userID)

	socket.Run()

	h.registry.Release(userID, regID)
	socket.Close()
	streamLog.Debugf("socket closed for user %s", userID)
}
