package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "helphub/internal/errors"
	"helphub/internal/model"
)

func TestAuthorize(t *testing.T) {
	user := Actor{ID: 2, Username: "alice", Role: model.RoleUser}
	admin := Actor{ID: 1, Username: "admin", Role: model.RoleAdmin}
	ghost := Actor{ID: 3, Username: "ghost", Role: model.Role("auditor")}

	statusAndSatisfaction := model.FieldSet(model.FieldStatus) | model.FieldSet(model.FieldUserSatisfied)

	tests := []struct {
		name      string
		actor     Actor
		owner     uint
		requested model.FieldSet
		want      model.FieldSet
		wantErr   error
	}{
		{name: "admin on own ticket", actor: admin, owner: 1, requested: model.AllFields, want: model.AllFields},
		{name: "admin on any ticket", actor: admin, owner: 2, requested: statusAndSatisfaction, want: statusAndSatisfaction},
		{name: "owner narrowed to satisfaction", actor: user, owner: 2, requested: statusAndSatisfaction, want: model.OwnerFields},
		{name: "owner with admin-only fields", actor: user, owner: 2, requested: model.FieldSet(model.FieldStatus), want: model.NoFields},
		{name: "owner with nothing requested", actor: user, owner: 2, requested: model.NoFields, want: model.NoFields},
		{name: "non-owner", actor: user, owner: 1, requested: model.OwnerFields, want: model.NoFields, wantErr: apperrors.ErrForbidden},
		{name: "unknown role", actor: ghost, owner: 3, requested: model.OwnerFields, want: model.NoFields, wantErr: apperrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Authorize(tt.actor, tt.owner, tt.requested)
			assert.Equal(t, tt.want, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScopeFilter(t *testing.T) {
	requested := uint(1)
	status := model.TicketStatusOpen
	in := model.TicketFilter{OwnerID: &requested, Status: &status, Limit: 10}

	user := ScopeFilter(Actor{ID: 2, Role: model.RoleUser}, in)
	if assert.NotNil(t, user.OwnerID) {
		assert.Equal(t, uint(2), *user.OwnerID)
	}
	assert.Equal(t, &status, user.Status)
	assert.Equal(t, 10, user.Limit)
	assert.Equal(t, uint(1), *in.OwnerID, "input filter must not be mutated")

	admin := ScopeFilter(Actor{ID: 1, Role: model.RoleAdmin}, in)
	assert.Equal(t, in, admin)

	unscoped := ScopeFilter(Actor{ID: 1, Role: model.RoleAdmin}, model.TicketFilter{})
	assert.Nil(t, unscoped.OwnerID)

	ghost := ScopeFilter(Actor{ID: 5, Role: model.Role("")}, model.TicketFilter{})
	if assert.NotNil(t, ghost.OwnerID) {
		assert.Equal(t, uint(0), *ghost.OwnerID)
	}
}

func TestCanView(t *testing.T) {
	assert.NoError(t, CanView(Actor{ID: 1, Role: model.RoleAdmin}, 7))
	assert.NoError(t, CanView(Actor{ID: 7, Role: model.RoleUser}, 7))
	assert.ErrorIs(t, CanView(Actor{ID: 8, Role: model.RoleUser}, 7), apperrors.ErrForbidden)
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(Actor{Role: model.RoleAdmin}))
	assert.ErrorIs(t, RequireAdmin(Actor{Role: model.RoleUser}), apperrors.ErrAdminRequired)
}

func TestActorFor(t *testing.T) {
	u := &model.User{ID: 4, Username: "bob", Role: model.RoleAdmin}
	a := ActorFor(u)
	assert.Equal(t, Actor{ID: 4, Username: "bob", Role: model.RoleAdmin}, a)
	assert.True(t, a.IsAdmin())
}
