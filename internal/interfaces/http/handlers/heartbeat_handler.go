package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/store"
	"github.com/openadmet/admet-server/internal/interfaces/http/middleware"
)

// HeartbeatHandler keeps a user's stored batch alive while their tab is open.
type HeartbeatHandler struct {
	store  store.Store
	logger logging.Logger
}

func NewHeartbeatHandler(st store.Store, logger logging.Logger) *HeartbeatHandler {
	return &HeartbeatHandler{store: st, logger: logger}
}

// Beat refreshes the expiry clock for the caller's entry. A heartbeat from a
// user with nothing stored is still a 204; it must not create an entry.
func (h *HeartbeatHandler) Beat(c *gin.Context) {
	userID := middleware.UserID(c)

	if err := h.store.Touch(c.Request.Context(), userID); err != nil {
		h.logger.Warn("heartbeat touch failed",
			logging.String("user_id", userID), logging.Err(err))
	}
	c.Status(http.StatusNoContent)
}
