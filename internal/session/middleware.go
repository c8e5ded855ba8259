package session

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/studygeni/study-gateway/internal/logger"
)

// HeaderName carries the study session ID. The client holds on to it for the
// lifetime of one page session; a new ID starts a fresh set of slots.
const HeaderName = "X-Session-ID"

const ginKey = "study_session_id"

// Middleware reads the session ID from the request header, minting one when
// absent, and echoes it back in the response so the client can persist it.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(HeaderName)
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		c.Set(ginKey, sessionID)
		c.Header(HeaderName, sessionID)

		ctx := logger.WithSessionID(c.Request.Context(), sessionID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// ID extracts the session ID from the Gin context.
func ID(c *gin.Context) string {
	id, _ := c.Get(ginKey)
	s, _ := id.(string)
	return s
}
