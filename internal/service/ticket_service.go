package service

import (
	"context"
	"strings"
	"unicode/utf8"

	apperrors "helphub/internal/errors"
	"helphub/internal/metrics"
	"helphub/internal/model"
	"helphub/internal/policy"
	"helphub/internal/repository"
)

// TicketService exposes ticket operations on behalf of an actor. Every
// method runs the access policy before touching storage.
type TicketService interface {
	Create(ctx context.Context, actor policy.Actor, query string) (*model.Ticket, error)
	List(ctx context.Context, actor policy.Actor, filter model.TicketFilter) ([]model.Ticket, error)
	Get(ctx context.Context, actor policy.Actor, id uint) (*model.Ticket, error)
	Update(ctx context.Context, actor policy.Actor, id uint, patch model.TicketPatch) (*model.Ticket, error)
	Stats(ctx context.Context, actor policy.Actor) (*model.TicketStats, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
}

type ticketService struct {
	repo repository.TicketRepository
}

// NewTicketService builds a TicketService over repo.
func NewTicketService(repo repository.TicketRepository) TicketService {
	return &ticketService{repo: repo}
}

// Create files a new open ticket owned by the actor.
func (s *ticketService) Create(ctx context.Context, actor policy.Actor, query string) (*model.Ticket, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < model.MinQueryLength {
		return nil, apperrors.NewValidationError("query", "must be at least 10 characters")
	}

	ticket, err := s.repo.Create(ctx, &model.Ticket{
		UserID:      actor.ID,
		Query:       query,
		Status:      model.TicketStatusOpen,
		RespondedBy: model.ResponderNone,
	})
	if err != nil {
		return nil, err
	}
	metrics.TicketsCreated.Inc()
	return ticket, nil
}

func (s *ticketService) List(ctx context.Context, actor policy.Actor, filter model.TicketFilter) ([]model.Ticket, error) {
	if filter.Limit < 0 || filter.Limit > model.MaxListLimit {
		return nil, apperrors.NewValidationError("limit", "must be between 1 and 500")
	}
	if filter.Offset < 0 {
		return nil, apperrors.NewValidationError("offset", "must not be negative")
	}
	return s.repo.List(ctx, policy.ScopeFilter(actor, filter))
}

func (s *ticketService) Get(ctx context.Context, actor policy.Actor, id uint) (*model.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanView(actor, ticket.UserID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Update applies the part of patch the actor is allowed to write. Fields
// outside the actor's permission are dropped, not rejected; only an empty
// result is an error.
func (s *ticketService) Update(ctx context.Context, actor policy.Actor, id uint, patch model.TicketPatch) (*model.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := policy.Authorize(actor, ticket.UserID, patch.Fields())
	if err != nil {
		metrics.TicketUpdates.WithLabelValues("forbidden").Inc()
		return nil, err
	}
	if allowed.Empty() {
		metrics.TicketUpdates.WithLabelValues("no_fields").Inc()
		return nil, apperrors.ErrNoFields
	}

	updated, err := s.repo.Update(ctx, id, patch.Restrict(allowed))
	if err != nil {
		return nil, err
	}
	metrics.TicketUpdates.WithLabelValues("applied").Inc()
	return updated, nil
}

func (s *ticketService) Stats(ctx context.Context, actor policy.Actor) (*model.TicketStats, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx)
}

func (s *ticketService) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	return s.repo.CountByOwner(ctx, ownerID)
}
