package main

import (
	"fmt"

	"github.com/artpar/shapegen/bootstrap"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the shapegen HTTP API.

The server will:
  - Load configuration from shapegen.yaml (or --config)
  - Or load configuration from SHAPEGEN_* environment variables
  - Serve POST /v1/generate and POST /v1/batch
  - Expose /health, /version and Prometheus metrics
  - Reload the config file on change or SIGHUP

Environment variables:
  SHAPEGEN_SERVER_HOST      - Server host (default: 0.0.0.0)
  SHAPEGEN_SERVER_PORT      - Server port (default: 8080)
  SHAPEGEN_LOG_LEVEL        - Log level: debug, info, warn, error
  SHAPEGEN_METRICS_ENABLED  - Expose /metrics (default: true)

Examples:
  shapegen serve
  shapegen serve --config /etc/shapegen/shapegen.yaml
  SHAPEGEN_SERVER_PORT=9000 shapegen serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		LogLevel:   logLevel,
		LogFormat:  logFormat,
		LogOutput:  cmd.ErrOrStderr(),
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return a.Run(cmd.Context())
}
