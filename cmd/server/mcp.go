package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"helphub/internal/app"
	"helphub/internal/mcpserver"
	"helphub/internal/policy"
)

const tokenEnv = "HELPHUB_TOKEN"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ticket tools over MCP on stdio",
	Long: "Serve the ticket tools over the Model Context Protocol on stdin/stdout.\n" +
		"The caller is identified by the access token in " + tokenEnv + ".",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	token := os.Getenv(tokenEnv)
	if token == "" {
		return errors.New(tokenEnv + " is not set")
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	claims, err := a.JWT.DecodeToken(token)
	if err != nil {
		return fmt.Errorf("%s: %w", tokenEnv, err)
	}
	user, err := a.Auth.ResolveUser(ctx, claims)
	if err != nil {
		return fmt.Errorf("%s: %w", tokenEnv, err)
	}

	return mcpserver.New(a.Toolbox, policy.ActorFor(user), logger).ServeStdio()
}
