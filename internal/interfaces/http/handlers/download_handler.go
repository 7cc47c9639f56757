package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/store"
	"github.com/openadmet/admet-server/internal/interfaces/http/middleware"
	"github.com/openadmet/admet-server/pkg/errors"
)

// DownloadHandler serves the stored prediction table as a CSV attachment.
type DownloadHandler struct {
	store  store.Store
	logger logging.Logger
}

func NewDownloadHandler(st store.Store, logger logging.Logger) *DownloadHandler {
	return &DownloadHandler{store: st, logger: logger}
}

// Predictions streams the user's full batch, including rows hidden from the
// results page, as predictions.csv. Users without a stored batch get 404.
func (h *DownloadHandler) Predictions(c *gin.Context) {
	userID := middleware.UserID(c)

	entry, err := h.store.Get(c.Request.Context(), userID)
	if err != nil {
		writeAppError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := entry.Table.WriteCSV(&buf); err != nil {
		h.logger.Error("failed to serialize predictions CSV",
			logging.String("user_id", userID), logging.Err(err))
		writeAppError(c, errors.Wrap(err, errors.ErrCodeInternal, "failed to serialize predictions"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="predictions.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
