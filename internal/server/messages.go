package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/rockbridge-dev/rockbridge/internal/client"
	"github.com/rockbridge-dev/rockbridge/internal/config"
	"github.com/rockbridge-dev/rockbridge/internal/protocol"
	"github.com/rockbridge-dev/rockbridge/internal/protocol/stream"
)

// anthropicVersion is the API version Bedrock expects inside the invoke
// body, replacing the anthropic-version HTTP header of the native API.
const anthropicVersion = "bedrock-2023-05-31"

// handleMessages serves POST /v1/messages. Models that resolve to a Bedrock
// backend id go through the invoke API, with the streaming response
// transcoded frame by frame; unknown models are passed through to the native
// Anthropic endpoint byte-identical.
func (s *Server) handleMessages(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest,
			protocol.NewErrorResponse("invalid_request_error", "failed to read request body", ""))
		return
	}

	model := gjson.GetBytes(body, "model").String()
	if model == "" {
		c.JSON(http.StatusBadRequest,
			protocol.NewErrorResponse("invalid_request_error", "missing model field", ""))
		return
	}

	backendID, resolution := s.mapper.Load().Resolve(model)
	log := requestLogger(c).WithFields(logrus.Fields{
		"model":         model,
		"backend_model": backendID,
	})

	if resolution == config.ResolutionUnknown {
		log.Warn("unknown model, passing through to native endpoint")
		s.handlePassthrough(c, log, body)
		return
	}

	isStream := gjson.GetBytes(body, "stream").Bool()
	invokeBody, err := buildInvokeBody(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError,
			protocol.NewErrorResponse("api_error", "failed to prepare upstream request", ""))
		return
	}

	if isStream {
		s.streamFromBedrock(c, log, backendID, invokeBody)
		return
	}
	s.invokeBedrock(c, log, backendID, invokeBody, model)
}

// buildInvokeBody converts a native messages request body into the Bedrock
// invoke body: model and stream live in the URL and Accept header there, and
// anthropic_version replaces the version HTTP header. Everything else is the
// client's JSON, untouched.
func buildInvokeBody(body []byte) ([]byte, error) {
	out, err := sjson.DeleteBytes(body, "model")
	if err != nil {
		return nil, err
	}
	out, err = sjson.DeleteBytes(out, "stream")
	if err != nil {
		return nil, err
	}
	if !gjson.GetBytes(out, "anthropic_version").Exists() {
		out, err = sjson.SetBytes(out, "anthropic_version", anthropicVersion)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// streamFromBedrock owns the hot path: open the streaming invoke endpoint
// and run the transcoder between the two connections. The upstream request
// is bound to the downstream request context, so a client disconnect aborts
// the upstream read and releases the connection.
func (s *Server) streamFromBedrock(c *gin.Context, log *logrus.Entry, backendID string, body []byte) {
	upstream, err := s.bedrock.InvokeStream(c.Request.Context(), backendID, body)
	if err != nil {
		writeUpstreamError(c, log, err)
		return
	}
	defer upstream.Close()

	if !CheckSSESupport(c) {
		return
	}
	SetupSSEHeaders(c)
	c.Status(http.StatusOK)

	tr := stream.NewTranscoder(c.Writer, s.upstream.MaxFrameBytes).WithLogger(log)
	if err := tr.Run(c.Request.Context(), upstream); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Debug("client disconnected, stream stopped")
			return
		}
		// Headers are long gone; the transcoder already delivered its
		// best-effort trailing error event.
		log.WithError(err).WithField("state", tr.State().String()).Error("stream transcoding failed")
		return
	}
	log.Debug("stream completed cleanly")
}

// invokeBedrock handles the non-streaming path: plain JSON through the
// invoke endpoint, with the same scoped tool-id rewrite applied and the
// public model name restored in the response.
func (s *Server) invokeBedrock(c *gin.Context, log *logrus.Entry, backendID string, body []byte, publicModel string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout())
	defer cancel()

	data, err := s.bedrock.Invoke(ctx, backendID, body)
	if err != nil {
		writeUpstreamError(c, log, err)
		return
	}

	data = stream.RewriteToolUseIDs(data)
	if gjson.GetBytes(data, "model").Exists() {
		if restored, err := sjson.SetBytes(data, "model", publicModel); err == nil {
			data = restored
		}
	}
	c.Data(http.StatusOK, "application/json", data)
}

// writeUpstreamError maps an upstream failure onto the client response,
// preserving the backend's status when it sent one.
func writeUpstreamError(c *gin.Context, log *logrus.Entry, err error) {
	var statusErr *client.UpstreamStatusError
	if errors.As(err, &statusErr) {
		log.WithField("status", statusErr.StatusCode).WithError(err).Error("upstream rejected request")
		c.JSON(statusErr.StatusCode,
			protocol.NewErrorResponse("api_error", statusErr.Body, ""))
		return
	}
	log.WithError(err).Error("upstream request failed")
	c.JSON(http.StatusBadGateway,
		protocol.NewErrorResponse("api_error", "upstream request failed", ""))
}
