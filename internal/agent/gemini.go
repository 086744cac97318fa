// Package agent runs assistant turns against Gemini with the ticket tools
// attached. It implements chat.Model.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	apperrors "helphub/internal/errors"
	"helphub/internal/model"
	"helphub/internal/policy"
	"helphub/internal/tools"
)

const (
	DefaultModelName     = "gemini-1.5-flash"
	DefaultMaxToolRounds = 5

	roleUser  = "user"
	roleModel = "model"
)

// ErrNotConfigured is returned by Unavailable.
var ErrNotConfigured = errors.New("assistant model is not configured")

// Unavailable is the model used when no API key is configured. Every turn
// fails, which the chat bridge reports as a model outage.
type Unavailable struct{}

func (Unavailable) Invoke(context.Context, policy.Actor, []model.Message) ([]model.Message, error) {
	return nil, ErrNotConfigured
}

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type sessionFactory func(system *genai.Content, decls []*genai.Tool, history []*genai.Content) chatSession

// Gemini drives a tool-calling loop: it sends the user's turn, executes any
// function calls the model asks for, feeds the results back and stops at
// the first plain-text answer or after maxRounds tool rounds.
type Gemini struct {
	client     *genai.Client
	newSession sessionFactory
	toolbox    *tools.Toolbox
	maxRounds  int
	logger     *slog.Logger
}

// NewGemini connects to the Gemini API.
func NewGemini(ctx context.Context, apiKey, modelName string, toolbox *tools.Toolbox, maxRounds int, logger *slog.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModelName
	}

	g := newGemini(toolbox, maxRounds, logger)
	g.client = client
	g.newSession = func(system *genai.Content, decls []*genai.Tool, history []*genai.Content) chatSession {
		m := client.GenerativeModel(modelName)
		m.SystemInstruction = system
		m.Tools = decls
		cs := m.StartChat()
		cs.History = history
		return cs
	}
	return g, nil
}

func newGemini(toolbox *tools.Toolbox, maxRounds int, logger *slog.Logger) *Gemini {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		toolbox:   toolbox,
		maxRounds: maxRounds,
		logger:    logger.With("component", "agent"),
	}
}

// Close releases the API client.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Invoke runs one assistant turn for the last human message in log.
func (g *Gemini) Invoke(ctx context.Context, actor policy.Actor, log []model.Message) ([]model.Message, error) {
	if len(log) == 0 || log[len(log)-1].Role != model.MessageRoleHuman {
		return nil, errors.New("log must end with a human message")
	}
	prompt := log[len(log)-1].Content
	system, history := buildHistory(log[:len(log)-1])

	cs := g.newSession(system, declarations(g.toolbox.Available(actor)), history)
	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini send: %w", err)
	}

	out := append([]model.Message(nil), log...)
	for round := 0; ; round++ {
		calls, text := splitResponse(resp)
		if len(calls) == 0 {
			if text == "" {
				// Nothing usable; the bridge falls back to an apology.
				return out, nil
			}
			return append(out, model.Message{Role: model.MessageRoleAssistant, Content: text}), nil
		}
		if round >= g.maxRounds {
			g.logger.Warn("tool round limit reached", "user_id", actor.ID, "rounds", round)
			return out, nil
		}

		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result := g.runTool(ctx, actor, call)
			encoded, err := json.Marshal(result)
			if err != nil {
				return nil, fmt.Errorf("encode %s result: %w", call.Name, err)
			}
			out = append(out, model.Message{
				Role:     model.MessageRoleTool,
				ToolName: call.Name,
				Content:  string(encoded),
			})
			replies = append(replies, genai.FunctionResponse{Name: call.Name, Response: result})
		}

		resp, err = cs.SendMessage(ctx, replies...)
		if err != nil {
			return nil, fmt.Errorf("gemini send tool results: %w", err)
		}
	}
}

// runTool executes call and shapes the outcome as a function response.
// Failures are reported to the model instead of aborting the turn.
func (g *Gemini) runTool(ctx context.Context, actor policy.Actor, call genai.FunctionCall) map[string]any {
	result, err := g.toolbox.Call(ctx, actor, call.Name, tools.Args(call.Args))
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		if httpErr.IsInternal() {
			g.logger.Error("tool failed", "tool", call.Name, "user_id", actor.ID, "error", err)
		}
		msg := httpErr.Message
		if errors.Is(err, tools.ErrUnknownTool) {
			msg = err.Error()
		}
		return map[string]any{"error": msg}
	}
	return toResponse(result)
}

// toResponse converts a tool result into the JSON object Gemini expects.
func toResponse(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": "result could not be encoded"}
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return map[string]any{"error": "result could not be encoded"}
	}
	if m, ok := decoded.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": decoded}
}

// buildHistory maps stored messages onto Gemini contents. System messages
// become the system instruction. Tool records are skipped: the calls that
// produced them are not stored, and Gemini rejects unpaired responses.
// Adjacent turns with the same role are merged.
func buildHistory(log []model.Message) (*genai.Content, []*genai.Content) {
	var system []genai.Part
	var history []*genai.Content

	for _, m := range log {
		var role string
		switch m.Role {
		case model.MessageRoleSystem:
			system = append(system, genai.Text(m.Content))
			continue
		case model.MessageRoleHuman:
			role = roleUser
		case model.MessageRoleAssistant:
			role = roleModel
		case model.MessageRoleTool:
			continue
		default:
			continue
		}
		if n := len(history); n > 0 && history[n-1].Role == role {
			history[n-1].Parts = append(history[n-1].Parts, genai.Text(m.Content))
			continue
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}

	var instruction *genai.Content
	if len(system) > 0 {
		instruction = &genai.Content{Parts: system}
	}
	// A conversation must open with a user turn.
	for len(history) > 0 && history[0].Role != roleUser {
		history = history[1:]
	}
	return instruction, history
}

func splitResponse(resp *genai.GenerateContentResponse) ([]genai.FunctionCall, string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ""
	}
	var calls []genai.FunctionCall
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		switch part := p.(type) {
		case genai.FunctionCall:
			calls = append(calls, part)
		case genai.Text:
			b.WriteString(string(part))
		}
	}
	return calls, strings.TrimSpace(b.String())
}

func declarations(ts []tools.Tool) []*genai.Tool {
	if len(ts) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(ts))
	for _, t := range ts {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schemaFor(t.Params),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func schemaFor(params []tools.Param) *genai.Schema {
	if len(params) == 0 {
		return nil
	}
	s := &genai.Schema{Type: genai.TypeObject, Properties: make(map[string]*genai.Schema, len(params))}
	for _, p := range params {
		prop := &genai.Schema{Description: p.Description, Enum: p.Enum}
		switch p.Type {
		case tools.TypeInteger:
			prop.Type = genai.TypeInteger
		case tools.TypeBoolean:
			prop.Type = genai.TypeBoolean
		case tools.TypeString:
			prop.Type = genai.TypeString
		default:
			prop.Type = genai.TypeString
		}
		if len(p.Enum) > 0 {
			prop.Format = "enum"
		}
		s.Properties[p.Name] = prop
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}
