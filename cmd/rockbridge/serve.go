package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rockbridge-dev/rockbridge/internal/config"
	"github.com/rockbridge-dev/rockbridge/internal/obs"
	"github.com/rockbridge-dev/rockbridge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the proxy server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if err := obs.SetupLogger(cfg.Log); err != nil {
			return err
		}

		srv := server.New(cfg)

		watcher, err := config.NewWatcher(cfg)
		if err != nil {
			return fmt.Errorf("create config watcher: %w", err)
		}
		watcher.AddCallback(srv.ReloadMapper)
		if err := watcher.Start(); err != nil {
			logrus.WithError(err).Warn("config watcher unavailable, hot reload disabled")
		} else {
			defer watcher.Stop()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}
