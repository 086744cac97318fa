package model

import "strings"

// Field identifies one mutable ticket column.
type Field uint8

const (
	FieldStatus Field = 1 << iota
	FieldLLMResponse
	FieldFinalResponse
	FieldRespondedBy
	FieldIsResolved
	FieldUserSatisfied
)

// FieldSet is a bitmask of ticket fields.
type FieldSet uint8

const (
	// NoFields is the empty mask.
	NoFields FieldSet = 0
	// AllFields covers every mutable ticket column.
	AllFields = FieldSet(FieldStatus | FieldLLMResponse | FieldFinalResponse |
		FieldRespondedBy | FieldIsResolved | FieldUserSatisfied)
	// OwnerFields is what a non-admin owner may change.
	OwnerFields = FieldSet(FieldUserSatisfied)
)

var fieldColumns = []struct {
	field  Field
	column string
}{
	{FieldStatus, "status"},
	{FieldLLMResponse, "llm_response"},
	{FieldFinalResponse, "final_response"},
	{FieldRespondedBy, "responded_by"},
	{FieldIsResolved, "is_resolved"},
	{FieldUserSatisfied, "user_satisfied"},
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	return s&FieldSet(f) != 0
}

// Intersect returns the fields present in both sets.
func (s FieldSet) Intersect(o FieldSet) FieldSet {
	return s & o
}

// Empty reports whether no field is set.
func (s FieldSet) Empty() bool {
	return s == NoFields
}

func (s FieldSet) String() string {
	if s.Empty() {
		return "none"
	}
	var names []string
	for _, fc := range fieldColumns {
		if s.Has(fc.field) {
			names = append(names, fc.column)
		}
	}
	return strings.Join(names, ",")
}

// TicketPatch is a partial ticket update. Only non-nil fields are applied.
type TicketPatch struct {
	Status        *TicketStatus
	LLMResponse   *string
	FinalResponse *string
	RespondedBy   *Responder
	IsResolved    *bool
	UserSatisfied *bool
}

// Fields returns the mask of fields the patch carries.
func (p TicketPatch) Fields() FieldSet {
	var s FieldSet
	if p.Status != nil {
		s |= FieldSet(FieldStatus)
	}
	if p.LLMResponse != nil {
		s |= FieldSet(FieldLLMResponse)
	}
	if p.FinalResponse != nil {
		s |= FieldSet(FieldFinalResponse)
	}
	if p.RespondedBy != nil {
		s |= FieldSet(FieldRespondedBy)
	}
	if p.IsResolved != nil {
		s |= FieldSet(FieldIsResolved)
	}
	if p.UserSatisfied != nil {
		s |= FieldSet(FieldUserSatisfied)
	}
	return s
}

// Restrict drops every field not in allowed.
func (p TicketPatch) Restrict(allowed FieldSet) TicketPatch {
	var out TicketPatch
	if allowed.Has(FieldStatus) {
		out.Status = p.Status
	}
	if allowed.Has(FieldLLMResponse) {
		out.LLMResponse = p.LLMResponse
	}
	if allowed.Has(FieldFinalResponse) {
		out.FinalResponse = p.FinalResponse
	}
	if allowed.Has(FieldRespondedBy) {
		out.RespondedBy = p.RespondedBy
	}
	if allowed.Has(FieldIsResolved) {
		out.IsResolved = p.IsResolved
	}
	if allowed.Has(FieldUserSatisfied) {
		out.UserSatisfied = p.UserSatisfied
	}
	return out
}

// Columns maps the patch onto column/value pairs for a gorm Updates call.
// Column names come from a fixed table, never from input.
func (p TicketPatch) Columns() map[string]interface{} {
	changes := make(map[string]interface{})
	if p.Status != nil {
		changes["status"] = *p.Status
	}
	if p.LLMResponse != nil {
		changes["llm_response"] = *p.LLMResponse
	}
	if p.FinalResponse != nil {
		changes["final_response"] = *p.FinalResponse
	}
	if p.RespondedBy != nil {
		changes["responded_by"] = *p.RespondedBy
	}
	if p.IsResolved != nil {
		changes["is_resolved"] = *p.IsResolved
	}
	if p.UserSatisfied != nil {
		changes["user_satisfied"] = *p.UserSatisfied
	}
	return changes
}
