// Package handlers implements the HTTP endpoints: the prediction page, the
// DrugBank scatter endpoint, CSV download, heartbeat, and health checks.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openadmet/admet-server/pkg/errors"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError maps an application error onto its HTTP status. Server-side
// failures are masked so internals don't leak to clients.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = errors.DefaultMessageForCode(errors.ErrCodeInternal)
		code = errors.ErrCodeInternal
	} else if ae, ok := err.(*errors.AppError); ok {
		message = ae.Message
	}

	_ = c.Error(err)
	c.JSON(status, ErrorResponse{Code: string(code), Message: message})
}
