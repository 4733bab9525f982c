package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rockbridge-dev/rockbridge/internal/protocol"
)

// SetupSSEHeaders sets the standard Server-Sent-Events response headers.
func SetupSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Cache-Control")
}

// CheckSSESupport verifies the connection can flush incrementally. When it
// cannot, a JSON error is written and false returned.
func CheckSSESupport(c *gin.Context) bool {
	if _, ok := c.Writer.(http.Flusher); !ok {
		c.JSON(http.StatusInternalServerError,
			protocol.NewErrorResponse("api_error", "streaming not supported by this connection", "streaming_unsupported"))
		return false
	}
	return true
}
