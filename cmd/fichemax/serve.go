package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fichemax/fichemax/internal/config"
	"github.com/fichemax/fichemax/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fichemax server",
	Long: `Start the fichemax HTTP server.

The server connects to Postgres (with the pgvector extension), ensures the
schema, and serves the study-sheet pipeline. Configuration changes to the
config file are picked up without a restart for generation settings.

The server provides:
  - /health              - Basic server health check
  - /ready               - Readiness check (includes database status)
  - /generate-card-data  - Study sheet as structured JSON
  - /generate-pdf        - Study sheet as a downloadable PDF
  - /queries/ask         - Free-form chatbot answer

Examples:
  fichemax serve                 # Start on default port 5001
  fichemax serve --port 3000     # Start on custom port
  fichemax serve --host 0.0.0.0  # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Load config with hot reload
		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		// Create server
		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			HomePath:      homeDir,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
