package model

import (
	"fmt"
	"time"
)

// MinQueryLength is the shortest ticket query accepted at creation.
const MinQueryLength = 10

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketStatusOpen         TicketStatus = "open"
	TicketStatusInProgress   TicketStatus = "in_progress"
	TicketStatusPendingLLM   TicketStatus = "pending_llm"
	TicketStatusPendingHuman TicketStatus = "pending_human"
	TicketStatusResolved     TicketStatus = "resolved"
	TicketStatusClosed       TicketStatus = "closed"
)

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusPendingLLM,
	TicketStatusPendingHuman,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingLLM,
		TicketStatusPendingHuman, TicketStatusResolved, TicketStatusClosed:
		return true
	default:
		return false
	}
}

// ParseTicketStatus converts a raw string into a TicketStatus.
func ParseTicketStatus(s string) (TicketStatus, error) {
	st := TicketStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown ticket status %q", s)
	}
	return st, nil
}

// Responder records who produced the answer on a ticket.
type Responder string

const (
	ResponderLLM   Responder = "llm"
	ResponderHuman Responder = "human"
	ResponderNone  Responder = "none"
)

// Responders lists every responder value.
var Responders = []Responder{ResponderLLM, ResponderHuman, ResponderNone}

// Valid reports whether r is a known responder.
func (r Responder) Valid() bool {
	switch r {
	case ResponderLLM, ResponderHuman, ResponderNone:
		return true
	default:
		return false
	}
}

// ParseResponder converts a raw string into a Responder.
func ParseResponder(s string) (Responder, error) {
	r := Responder(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown responder %q", s)
	}
	return r, nil
}

// Ticket represents a support request filed by a user.
type Ticket struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	UserID        uint         `json:"user_id" gorm:"not null;index"`
	Username      string       `json:"username" gorm:"-"`
	Query         string       `json:"query" gorm:"type:text;not null"`
	Status        TicketStatus `json:"status" gorm:"size:20;not null;default:'open';index"`
	LLMResponse   *string      `json:"llm_response" gorm:"column:llm_response;type:text"`
	FinalResponse *string      `json:"final_response" gorm:"type:text"`
	RespondedBy   Responder    `json:"responded_by" gorm:"size:20;not null;default:'none'"`
	IsResolved    bool         `json:"is_resolved" gorm:"not null;default:false"`
	UserSatisfied *bool        `json:"user_satisfied"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// TicketFilter narrows a ticket listing. Nil fields match everything.
type TicketFilter struct {
	OwnerID     *uint
	Status      *TicketStatus
	IsResolved  *bool
	RespondedBy *Responder
	Limit       int
	Offset      int
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// TicketStats is the aggregate view served to administrators.
type TicketStats struct {
	TotalTickets     int64                  `json:"total_tickets"`
	TicketsByStatus  map[TicketStatus]int64 `json:"tickets_by_status"`
	ResolvedTickets  int64                  `json:"resolved_tickets"`
	UserSatisfaction Satisfaction           `json:"user_satisfaction"`
	ResponseTypes    map[Responder]int64    `json:"response_types"`
	TotalUsers       int64                  `json:"total_users"`
}

// Satisfaction counts the tri-state user_satisfied column.
type Satisfaction struct {
	Satisfied   int64 `json:"satisfied"`
	Unsatisfied int64 `json:"unsatisfied"`
	NoResponse  int64 `json:"no_response"`
}
