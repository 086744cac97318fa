package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"helphub/internal/app"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.Echo()
	if err != nil {
		return err
	}

	logger.Info("swagger documentation available", "url", swaggerURL(cfg.SwaggerHost, cfg.ServerPort))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", cfg.ServerPort, "env", cfg.AppEnv)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func swaggerURL(host, port string) string {
	switch {
	case host == "":
		return "http://localhost:" + port + "/swagger/index.html"
	case strings.HasPrefix(host, "http://"), strings.HasPrefix(host, "https://"):
		return strings.TrimSuffix(host, "/") + "/swagger/index.html"
	default:
		return "http://" + host + "/swagger/index.html"
	}
}
