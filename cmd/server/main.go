package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "helphub/docs" // swagger docs

	"helphub/internal/config"
)

// @title HelpHub API
// @version 1.0
// @description Support ticketing with role-based access and an assistant chat.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "helphub",
	Short:        "HelpHub support ticketing service",
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(mcpCmd)
}

// setup loads and validates configuration and builds the process logger.
// The mcp command speaks JSON-RPC on stdout, so logs always go to stderr.
func setup() (*config.Config, *slog.Logger, error) {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
