// Package middleware holds the gin middleware chain: anonymous session
// cookies, request logging, and per-request metrics.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookie identifies an anonymous user across requests. Predictions
	// are stored under this ID.
	SessionCookie = "admet_session"

	// ContextUserID is the gin context key the session middleware sets.
	ContextUserID = "user_id"

	sessionMaxAge = 30 * 24 * 60 * 60 // 30 days
)

// Session assigns a UUID cookie to first-time visitors and exposes the user
// ID to handlers via the gin context.
func Session(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := c.Cookie(SessionCookie)
		if err != nil || userID == "" || uuid.Validate(userID) != nil {
			userID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, userID, sessionMaxAge, "/", "", secure, true)
		}
		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID returns the session user ID set by Session.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ContextUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
