// Package tools exposes ticket operations as named, schema-described tools
// for the assistant model and the MCP server. Every call runs as an actor
// through the ticket service, so the same access rules apply as over HTTP.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"helphub/internal/metrics"
	"helphub/internal/model"
	"helphub/internal/policy"
	"helphub/internal/service"
)

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
)

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string
}

// Args are decoded tool arguments as delivered by JSON.
type Args map[string]any

// Tool is a callable ticket operation.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	AdminOnly   bool
	Call        func(ctx context.Context, actor policy.Actor, args Args) (any, error)
}

// ErrUnknownTool is returned by Call for names that are not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Toolbox is the set of ticket tools bound to a ticket service.
type Toolbox struct {
	tools map[string]Tool
}

// New builds the ticket toolbox over tickets.
func New(tickets service.TicketService) *Toolbox {
	h := &handlers{tickets: tickets}
	tb := &Toolbox{tools: make(map[string]Tool)}
	for _, t := range h.definitions() {
		tb.tools[t.Name] = t
	}
	return tb
}

// Available lists the tools actor may call, sorted by name.
func (tb *Toolbox) Available(actor policy.Actor) []Tool {
	out := make([]Tool, 0, len(tb.tools))
	for _, t := range tb.tools {
		if t.AdminOnly && !actor.IsAdmin() {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// All lists every tool regardless of role, sorted by name.
func (tb *Toolbox) All() []Tool {
	return tb.Available(policy.Actor{Role: model.RoleAdmin})
}

// Call runs the named tool as actor.
func (tb *Toolbox) Call(ctx context.Context, actor policy.Actor, name string, args Args) (any, error) {
	t, ok := tb.tools[name]
	if !ok {
		metrics.ToolCalls.WithLabelValues("unknown", "error").Inc()
		return nil, fmt.Errorf("%w %q", ErrUnknownTool, name)
	}
	if t.AdminOnly {
		if err := policy.RequireAdmin(actor); err != nil {
			metrics.ToolCalls.WithLabelValues(name, "denied").Inc()
			return nil, err
		}
	}
	for _, p := range t.Params {
		if _, present := args[p.Name]; p.Required && !present {
			metrics.ToolCalls.WithLabelValues(name, "error").Inc()
			return nil, invalidArg(p.Name, "is required")
		}
	}

	result, err := t.Call(ctx, actor, args)
	if err != nil {
		metrics.ToolCalls.WithLabelValues(name, "error").Inc()
		return nil, err
	}
	metrics.ToolCalls.WithLabelValues(name, "ok").Inc()
	return result, nil
}
