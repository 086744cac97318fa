package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketPatch_FieldsAndRestrict(t *testing.T) {
	status := TicketStatusClosed
	satisfied := true
	answer := "fixed"
	patch := TicketPatch{Status: &status, UserSatisfied: &satisfied, FinalResponse: &answer}

	fields := patch.Fields()
	assert.True(t, fields.Has(FieldStatus))
	assert.True(t, fields.Has(FieldUserSatisfied))
	assert.True(t, fields.Has(FieldFinalResponse))
	assert.False(t, fields.Has(FieldIsResolved))
	assert.Equal(t, "status,final_response,user_satisfied", fields.String())

	owner := patch.Restrict(OwnerFields)
	assert.Nil(t, owner.Status)
	assert.Nil(t, owner.FinalResponse)
	assert.Equal(t, &satisfied, owner.UserSatisfied)
	assert.Equal(t, map[string]interface{}{"user_satisfied": true}, owner.Columns())

	assert.Equal(t, patch, patch.Restrict(AllFields))
	assert.True(t, patch.Restrict(NoFields).Fields().Empty())
	assert.Equal(t, "none", NoFields.String())
}

func TestEnumParsing(t *testing.T) {
	for _, s := range TicketStatuses {
		got, err := ParseTicketStatus(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseTicketStatus("archived")
	assert.Error(t, err)

	for _, r := range Responders {
		_, err := ParseResponder(string(r))
		assert.NoError(t, err)
	}
	_, err = ParseResponder("robot")
	assert.Error(t, err)

	_, err = ParseRole("admin")
	assert.NoError(t, err)
	_, err = ParseRole("root")
	assert.Error(t, err)

	assert.True(t, MessageRoleTool.Valid())
	assert.False(t, MessageRole("narrator").Valid())
}
