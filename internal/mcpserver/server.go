// Package mcpserver publishes the ticket tools over the Model Context
// Protocol so desktop assistants can work with HelpHub tickets. The server
// runs as a single authenticated actor for its whole lifetime.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	apperrors "helphub/internal/errors"
	"helphub/internal/policy"
	"helphub/internal/tools"
)

const (
	Name    = "helphub"
	Version = "1.0.0"
)

// Server is an MCP server bound to one actor.
type Server struct {
	mcp     *server.MCPServer
	toolbox *tools.Toolbox
	actor   policy.Actor
	logger  *slog.Logger
	names   []string
}

// New registers every tool actor may call.
func New(toolbox *tools.Toolbox, actor policy.Actor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcp:     server.NewMCPServer(Name, Version, server.WithToolCapabilities(true)),
		toolbox: toolbox,
		actor:   actor,
		logger:  logger.With("component", "mcp", "user_id", actor.ID),
	}
	for _, t := range toolbox.Available(actor) {
		s.mcp.AddTool(toMCPTool(t), s.handler(t.Name))
		s.names = append(s.names, t.Name)
	}
	return s
}

// Tools lists the registered tool names.
func (s *Server) Tools() []string {
	return append([]string(nil), s.names...)
}

// ServeStdio blocks serving JSON-RPC over stdin and stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio", "tools", len(s.names))
	return server.ServeStdio(s.mcp)
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.toolbox.Call(ctx, s.actor, name, tools.Args(req.GetArguments()))
		if err != nil {
			httpErr := apperrors.MapErrorToHTTP(err)
			if httpErr.IsInternal() && !errors.Is(err, tools.ErrUnknownTool) {
				s.logger.Error("tool failed", "tool", name, "error", err)
			}
			return mcp.NewToolResultError(httpErr.Message), nil
		}
		body, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

func toMCPTool(t tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, p := range t.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		if len(p.Enum) > 0 {
			props = append(props, mcp.Enum(p.Enum...))
		}
		switch p.Type {
		case tools.TypeInteger:
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		case tools.TypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, props...))
		case tools.TypeString:
			opts = append(opts, mcp.WithString(p.Name, props...))
		default:
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}
