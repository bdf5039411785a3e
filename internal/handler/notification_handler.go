package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"homebroker/internal/middleware"
	"homebroker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("handler")

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// publishRequest is the only shape accepted from publishers. Fields such
// as id, is_read or created_at are dropped by decoding into it.
type publishRequest struct {
	UserID string          `json:"user_id"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
}

func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
}

// Publish stores a notification from a trusted caller and pushes it to the
// target user's open stream, if any. Mounted behind InternalSecret.
func (h *NotificationHandler) Publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed: malformed JSON body"})
		return
	}
	n, err := h.svc.Publish(c.Request.Context(), service.PublishInput{
		UserID: req.UserID,
		Type:   req.Type,
		Data:   req.Data,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Errorf("publish for user %s failed: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create notification"})
		return
	}
	noCache(c)
	c.Header("Connection", "keep-alive")
	c.JSON(http.StatusCreated, n)
}

// List returns every notification of the session user, newest first.
// ?unread=true limits the result to unread ones.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	list, err := h.svc.List(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		log.Errorf("list notifications for user %s failed: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	noCache(c)
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), uint(id), userID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Errorf("mark notification %d read failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	updated, err := h.svc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("mark all read for user %s failed: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "updated": updated})
}
