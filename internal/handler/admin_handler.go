package handler

import (
	"net/http"

	"homebroker/internal/hub"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	registry *hub.Registry
}

func NewAdminHandler(registry *hub.Registry) *AdminHandler {
	return &AdminHandler{registry: registry}
}

// Streams reports how many users hold an open notification stream on this
// instance.
func (h *AdminHandler) Streams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"open_streams": h.registry.Len()})
}
