// Package chat relays assistant conversations between a user and the
// model. Each user has at most one session: a role-tagged message log
// that only grows between init and clear.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "helphub/internal/errors"
	"helphub/internal/metrics"
	"helphub/internal/model"
	"helphub/internal/policy"
)

// FallbackReply is returned when the model's turn does not end with an
// assistant message.
const FallbackReply = "I encountered an issue processing your request. Please try again."

// DefaultTimeout bounds a single model turn.
const DefaultTimeout = 60 * time.Second

// lockStripes is the number of mutexes user ids are hashed onto.
const lockStripes = 64

// Model runs one assistant turn. It receives the whole log and returns it
// extended by the turn's messages: optional tool records, then normally a
// final assistant message. A turn may add nothing, which is answered with
// FallbackReply. Tool calls act as actor.
type Model interface {
	Invoke(ctx context.Context, actor policy.Actor, log []model.Message) ([]model.Message, error)
}

// TicketCounter counts a user's tickets for the greeting.
type TicketCounter interface {
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
}

// Bridge owns the per-user chat sessions.
type Bridge struct {
	store   SessionStore
	model   Model
	tickets TicketCounter
	timeout time.Duration
	logger  *slog.Logger

	locks [lockStripes]sync.Mutex
}

// NewBridge wires a bridge. A non-positive timeout selects DefaultTimeout.
func NewBridge(store SessionStore, m Model, tickets TicketCounter, timeout time.Duration, logger *slog.Logger) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		store:   store,
		model:   m,
		tickets: tickets,
		timeout: timeout,
		logger:  logger.With("component", "chat"),
	}
}

func (b *Bridge) lock(userID uint) func() {
	mu := &b.locks[userID%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Init starts a fresh session for actor, replacing any previous one, and
// returns the welcome text.
func (b *Bridge) Init(ctx context.Context, actor policy.Actor) (string, error) {
	unlock := b.lock(actor.ID)
	defer unlock()

	count, err := b.tickets.CountByOwner(ctx, actor.ID)
	if err != nil {
		return "", fmt.Errorf("count tickets for greeting: %w", err)
	}

	log := []model.Message{{Role: model.MessageRoleSystem, Content: SystemPrompt(actor)}}
	if err := b.store.Put(ctx, actor.ID, log); err != nil {
		return "", fmt.Errorf("store chat session: %w", err)
	}

	b.logger.Info("chat session started", "user_id", actor.ID)
	return WelcomeMessage(actor.Username, count), nil
}

// Send appends text as a human turn, runs the model and returns its reply.
// When the model fails or times out the stored log is left as it was and
// ErrModelUnavailable is returned.
func (b *Bridge) Send(ctx context.Context, actor policy.Actor, text string) (string, error) {
	unlock := b.lock(actor.ID)
	defer unlock()

	log, ok, err := b.store.Get(ctx, actor.ID)
	if err != nil {
		return "", fmt.Errorf("load chat session: %w", err)
	}
	if !ok {
		return "", apperrors.ErrSessionNotInitialized
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewValidationError("message", "must not be empty")
	}

	input := append(log, model.Message{Role: model.MessageRoleHuman, Content: text})

	turnCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	output, err := b.model.Invoke(turnCtx, actor, cloneLog(input))
	metrics.ModelLatency.Observe(time.Since(start).Seconds())
	if err == nil && turnCtx.Err() != nil {
		err = turnCtx.Err()
	}
	if err == nil && len(output) < len(input) {
		err = fmt.Errorf("model returned %d messages for a %d message log", len(output), len(input))
	}
	if err != nil {
		metrics.ChatTurns.WithLabelValues("unavailable").Inc()
		b.logger.Error("model turn failed", "user_id", actor.ID, "error", err)
		return "", fmt.Errorf("%w: %v", apperrors.ErrModelUnavailable, err)
	}

	// Only the new suffix is kept; earlier entries are never rewritten.
	updated := append(input, output[len(input):]...)
	if err := b.store.Put(ctx, actor.ID, updated); err != nil {
		return "", fmt.Errorf("store chat session: %w", err)
	}

	last := updated[len(updated)-1]
	if last.Role != model.MessageRoleAssistant {
		metrics.ChatTurns.WithLabelValues("fallback").Inc()
		return FallbackReply, nil
	}
	metrics.ChatTurns.WithLabelValues("reply").Inc()
	return last.Content, nil
}

// Clear drops the actor's session. Clearing a missing session succeeds.
func (b *Bridge) Clear(ctx context.Context, actor policy.Actor) error {
	unlock := b.lock(actor.ID)
	defer unlock()

	if err := b.store.Delete(ctx, actor.ID); err != nil {
		return fmt.Errorf("delete chat session: %w", err)
	}
	return nil
}

// Log returns a copy of the actor's session log.
func (b *Bridge) Log(ctx context.Context, actor policy.Actor) ([]model.Message, bool, error) {
	unlock := b.lock(actor.ID)
	defer unlock()
	return b.store.Get(ctx, actor.ID)
}

func cloneLog(log []model.Message) []model.Message {
	return append([]model.Message(nil), log...)
}
