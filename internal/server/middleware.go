package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rockbridge-dev/rockbridge/internal/protocol"
)

const requestIDKey = "request_id"

// RequestIDMiddleware tags every request with an id for log correlation and
// echoes it back to the client.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger returns a log entry carrying the request id.
func requestLogger(c *gin.Context) *logrus.Entry {
	return logrus.WithField(requestIDKey, c.GetString(requestIDKey))
}

// AuthMiddleware checks the static bearer token. Clients may send it as
// Authorization: Bearer or as x-api-key, matching what Anthropic SDKs emit.
// An empty configured token disables the check.
func AuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		presented := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if presented == "" {
			presented = c.GetHeader("x-api-key")
		}
		if presented != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				protocol.NewErrorResponse("authentication_error", "invalid or missing API key", ""))
			return
		}
		c.Next()
	}
}
