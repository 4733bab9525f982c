package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rockbridge-dev/rockbridge/internal/protocol"
)

// handlePassthrough forwards a request byte-identical to the native
// Anthropic endpoint: no transcoding, no body rewrite. Streaming responses
// are relayed chunk by chunk with a flush per read.
func (s *Server) handlePassthrough(c *gin.Context, log *logrus.Entry, body []byte) {
	base := s.upstream.AnthropicBaseURL
	if base == "" {
		c.JSON(http.StatusBadGateway,
			protocol.NewErrorResponse("api_error", "no native endpoint configured for this model", ""))
		return
	}

	target := strings.TrimSuffix(base, "/") + c.Request.URL.Path
	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusInternalServerError,
			protocol.NewErrorResponse("api_error", "failed to build passthrough request", ""))
		return
	}
	s.copyPassthroughHeaders(c.Request, req)

	resp, err := s.passthroughClient.Do(req)
	if err != nil {
		log.WithError(err).Error("passthrough request failed")
		c.JSON(http.StatusBadGateway,
			protocol.NewErrorResponse("api_error", "passthrough request failed", ""))
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		switch strings.ToLower(key) {
		// Hop-by-hop headers, and a Content-Length that would be stale
		// once the body is relayed chunk by chunk.
		case "content-length", "connection", "transfer-encoding":
			continue
		}
		for _, value := range values {
			c.Header(key, value)
		}
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		s.relayStream(c, log, resp)
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Error("failed to read passthrough response")
		c.JSON(http.StatusBadGateway,
			protocol.NewErrorResponse("api_error", "failed to read passthrough response", ""))
		return
	}
	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), data)
}

// copyPassthroughHeaders forwards client headers, replacing credentials with
// the configured upstream token when one is set.
func (s *Server) copyPassthroughHeaders(src, dst *http.Request) {
	for key, values := range src.Header {
		switch strings.ToLower(key) {
		case "host", "content-length", "connection", "authorization", "x-api-key":
			continue
		default:
			for _, value := range values {
				dst.Header.Add(key, value)
			}
		}
	}
	if token := s.upstream.AnthropicToken; token != "" {
		dst.Header.Set("x-api-key", token)
	} else {
		// No configured credential: pass the client's through.
		if v := src.Header.Get("Authorization"); v != "" {
			dst.Header.Set("Authorization", v)
		}
		if v := src.Header.Get("x-api-key"); v != "" {
			dst.Header.Set("x-api-key", v)
		}
	}
	if dst.Header.Get("Content-Type") == "" {
		dst.Header.Set("Content-Type", "application/json")
	}
}

// relayStream copies SSE bytes downstream as they arrive.
func (s *Server) relayStream(c *gin.Context, log *logrus.Entry, resp *http.Response) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError,
			protocol.NewErrorResponse("api_error", "streaming not supported by this connection", "streaming_unsupported"))
		return
	}

	c.Status(resp.StatusCode)
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				log.WithError(werr).Debug("client went away during passthrough stream")
				return
			}
			flusher.Flush()
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			log.WithError(err).Error("error relaying passthrough stream")
			return
		}
	}
}
