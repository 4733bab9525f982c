package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rockbridge-dev/rockbridge/internal/config"
	"github.com/rockbridge-dev/rockbridge/internal/util"
)

var rootCmd = &cobra.Command{
	Use:   "rockbridge",
	Short: "Rockbridge - Anthropic-compatible proxy for Bedrock-hosted Claude models",
	Long: `Rockbridge exposes an Anthropic-compatible /v1/messages endpoint and routes
requests to AWS Bedrock's invoke API, transcoding the binary event-stream
responses into the SSE format native clients expect.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logrus.SetLevel(logrus.TraceLevel)
		}
	},
}

// Set by compiler via -ldflags
var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

var configDir string

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default: ~/.rockbridge)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Rockbridge\n")
			fmt.Printf("Version:    %s\n", version)
			fmt.Printf("Git Commit: %s\n", gitCommit)
			fmt.Printf("Build Time: %s\n", buildTime)
		},
	})

	rootCmd.AddCommand(serveCmd)
}

// loadConfig resolves the config directory flag and loads the configuration.
func loadConfig() (*config.Config, error) {
	if configDir == "" {
		return config.New()
	}
	expanded, err := util.ExpandPath(configDir)
	if err != nil {
		return nil, fmt.Errorf("expand config directory: %w", err)
	}
	return config.NewWithConfigDir(expanded)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
