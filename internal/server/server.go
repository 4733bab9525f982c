// Package server is the HTTP surface: an Anthropic-compatible /v1/messages
// endpoint that forwards to Bedrock (transcoding the streaming response) or
// straight to the native Anthropic endpoint.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rockbridge-dev/rockbridge/internal/client"
	"github.com/rockbridge-dev/rockbridge/internal/config"
	"github.com/rockbridge-dev/rockbridge/internal/util"
)

// Server wires the model mapper and upstream clients behind the gin engine.
// The listen address and upstream settings are copied out of the Config at
// construction, so a config reload cannot touch them under a live request;
// only the mapper is hot-swapped, atomically, and one request always sees
// one consistent snapshot.
type Server struct {
	listen   string
	upstream config.UpstreamConfig
	mapper   atomic.Pointer[config.Mapper]
	bedrock  *client.BedrockClient
	// passthrough requests reuse one pooled client; no Timeout because
	// responses may stream.
	passthroughClient *http.Client
	engine            *gin.Engine
}

// New builds a Server from the loaded configuration.
func New(cfg *config.Config) *Server {
	s := &Server{
		listen:            cfg.Server.Listen,
		upstream:          cfg.Upstream,
		bedrock:           client.NewBedrockClient(cfg.Upstream.BedrockBaseURL, cfg.Upstream.BedrockToken),
		passthroughClient: &http.Client{},
	}
	s.mapper.Store(cfg.Mapper())

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), RequestIDMiddleware())

	api := s.engine.Group("/", AuthMiddleware(cfg.Server.AuthToken))
	api.POST("/v1/messages", s.handleMessages)

	s.engine.GET("/health", s.handleHealth)

	return s
}

// ReloadMapper installs a fresh mapper snapshot; the config watcher calls
// this after each successful reload.
func (s *Server) ReloadMapper(cfg *config.Config) {
	s.mapper.Store(cfg.Mapper())
	logrus.Info("model mapping table reloaded")
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.listen
	if !util.IsAddrAvailable(addr) {
		return fmt.Errorf("listen address %s is not available", addr)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("rockbridge listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestTimeout() time.Duration {
	return time.Duration(s.upstream.TimeoutSeconds) * time.Second
}
