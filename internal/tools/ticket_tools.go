package tools

import (
	"context"
	"math"
	"strconv"
	"strings"

	apperrors "helphub/internal/errors"
	"helphub/internal/model"
	"helphub/internal/policy"
	"helphub/internal/service"
)

type handlers struct {
	tickets service.TicketService
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func (h *handlers) definitions() []Tool {
	statuses := enumValues(model.TicketStatuses)
	responders := enumValues(model.Responders)

	return []Tool{
		{
			Name:        "get_tickets",
			Description: "List support tickets, newest first. Regular users only ever see their own tickets.",
			Params: []Param{
				{Name: "status", Type: TypeString, Description: "Only tickets with this status", Enum: statuses},
				{Name: "is_resolved", Type: TypeBoolean, Description: "Only resolved (true) or unresolved (false) tickets"},
				{Name: "responded_by", Type: TypeString, Description: "Only tickets answered by this responder", Enum: responders},
				{Name: "user_id", Type: TypeInteger, Description: "Only tickets owned by this user (admins only)"},
				{Name: "limit", Type: TypeInteger, Description: "Maximum number of tickets, 1 to 500 (default 100)"},
				{Name: "offset", Type: TypeInteger, Description: "Number of tickets to skip"},
			},
			Call: h.getTickets,
		},
		{
			Name:        "get_ticket",
			Description: "Get the full details of one ticket by id.",
			Params: []Param{
				{Name: "ticket_id", Type: TypeInteger, Description: "Ticket id", Required: true},
			},
			Call: h.getTicket,
		},
		{
			Name:        "create_ticket",
			Description: "Create a new support ticket for the current user.",
			Params: []Param{
				{Name: "query", Type: TypeString, Description: "Description of the problem, at least 10 characters", Required: true},
			},
			Call: h.createTicket,
		},
		{
			Name: "update_ticket",
			Description: "Update a ticket. Admins may change every field; regular users may only " +
				"set user_satisfied on their own tickets. Fields the caller may not change are ignored.",
			Params: []Param{
				{Name: "ticket_id", Type: TypeInteger, Description: "Ticket id", Required: true},
				{Name: "status", Type: TypeString, Description: "New status", Enum: statuses},
				{Name: "llm_response", Type: TypeString, Description: "Suggested answer from the assistant"},
				{Name: "final_response", Type: TypeString, Description: "Final answer to the user"},
				{Name: "responded_by", Type: TypeString, Description: "Who answered", Enum: responders},
				{Name: "is_resolved", Type: TypeBoolean, Description: "Whether the ticket is resolved"},
				{Name: "user_satisfied", Type: TypeBoolean, Description: "Whether the user is happy with the answer"},
			},
			Call: h.updateTicket,
		},
		{
			Name:        "ticket_stats",
			Description: "Aggregate ticket statistics: totals, status breakdown, satisfaction and responders.",
			AdminOnly:   true,
			Call: func(ctx context.Context, actor policy.Actor, _ Args) (any, error) {
				return h.tickets.Stats(ctx, actor)
			},
		},
	}
}

func (h *handlers) getTickets(ctx context.Context, actor policy.Actor, args Args) (any, error) {
	var filter model.TicketFilter
	var err error

	if filter.Status, err = optionalEnum(args, "status", model.ParseTicketStatus); err != nil {
		return nil, err
	}
	if filter.RespondedBy, err = optionalEnum(args, "responded_by", model.ParseResponder); err != nil {
		return nil, err
	}
	if filter.IsResolved, err = optionalBool(args, "is_resolved"); err != nil {
		return nil, err
	}
	owner, err := optionalInt(args, "user_id")
	if err != nil {
		return nil, err
	}
	if owner != nil {
		if *owner <= 0 {
			return nil, invalidArg("user_id", "must be positive")
		}
		id := uint(*owner)
		filter.OwnerID = &id
	}
	if limit, err := optionalInt(args, "limit"); err != nil {
		return nil, err
	} else if limit != nil {
		if *limit < 1 || *limit > model.MaxListLimit {
			return nil, invalidArg("limit", "must be between 1 and 500")
		}
		filter.Limit = int(*limit)
	}
	if offset, err := optionalInt(args, "offset"); err != nil {
		return nil, err
	} else if offset != nil {
		filter.Offset = int(*offset)
	}

	tickets, err := h.tickets.List(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(tickets), "tickets": tickets}, nil
}

func (h *handlers) getTicket(ctx context.Context, actor policy.Actor, args Args) (any, error) {
	id, err := ticketID(args)
	if err != nil {
		return nil, err
	}
	return h.tickets.Get(ctx, actor, id)
}

func (h *handlers) createTicket(ctx context.Context, actor policy.Actor, args Args) (any, error) {
	query, err := optionalString(args, "query")
	if err != nil {
		return nil, err
	}
	if query == nil {
		return nil, invalidArg("query", "is required")
	}
	return h.tickets.Create(ctx, actor, *query)
}

func (h *handlers) updateTicket(ctx context.Context, actor policy.Actor, args Args) (any, error) {
	id, err := ticketID(args)
	if err != nil {
		return nil, err
	}

	var patch model.TicketPatch
	if patch.Status, err = optionalEnum(args, "status", model.ParseTicketStatus); err != nil {
		return nil, err
	}
	if patch.RespondedBy, err = optionalEnum(args, "responded_by", model.ParseResponder); err != nil {
		return nil, err
	}
	if patch.LLMResponse, err = optionalString(args, "llm_response"); err != nil {
		return nil, err
	}
	if patch.FinalResponse, err = optionalString(args, "final_response"); err != nil {
		return nil, err
	}
	if patch.IsResolved, err = optionalBool(args, "is_resolved"); err != nil {
		return nil, err
	}
	if patch.UserSatisfied, err = optionalBool(args, "user_satisfied"); err != nil {
		return nil, err
	}
	return h.tickets.Update(ctx, actor, id, patch)
}

func invalidArg(name, msg string) error {
	return apperrors.NewValidationError(name, msg)
}

func ticketID(args Args) (uint, error) {
	v, err := optionalInt(args, "ticket_id")
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, invalidArg("ticket_id", "is required")
	}
	if *v <= 0 {
		return 0, invalidArg("ticket_id", "must be positive")
	}
	return uint(*v), nil
}

// optionalInt accepts JSON numbers and numeric strings, since models are
// loose about argument types.
func optionalInt(args Args, name string) (*int64, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	var v int64
	switch n := raw.(type) {
	case float64:
		if n != math.Trunc(n) {
			return nil, invalidArg(name, "must be an integer")
		}
		v = int64(n)
	case int:
		v = int64(n)
	case int64:
		v = n
	case string:
		parsed, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(n), "#"), 10, 64)
		if err != nil {
			return nil, invalidArg(name, "must be an integer")
		}
		v = parsed
	default:
		return nil, invalidArg(name, "must be an integer")
	}
	return &v, nil
}

func optionalBool(args Args, name string) (*bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	switch b := raw.(type) {
	case bool:
		return &b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return nil, invalidArg(name, "must be true or false")
		}
		return &parsed, nil
	default:
		return nil, invalidArg(name, "must be true or false")
	}
}

func optionalString(args Args, name string) (*string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, invalidArg(name, "must be a string")
	}
	return &s, nil
}

func optionalEnum[T any](args Args, name string, parse func(string) (T, error)) (*T, error) {
	s, err := optionalString(args, name)
	if err != nil || s == nil {
		return nil, err
	}
	v, err := parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, invalidArg(name, err.Error())
	}
	return &v, nil
}
