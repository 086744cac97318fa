package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	database "helphub/internal/db"
	apperrors "helphub/internal/errors"
	"helphub/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := database.Open("sqlite", ":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), gdb, "sqlite", nil))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func createUser(t *testing.T, repo UserRepository, username string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "hash",
		Role:           role,
		IsActive:       true,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func createTicket(t *testing.T, repo TicketRepository, owner uint, query string) *model.Ticket {
	t.Helper()
	ticket, err := repo.Create(context.Background(), &model.Ticket{
		UserID:      owner,
		Query:       query,
		Status:      model.TicketStatusOpen,
		RespondedBy: model.ResponderNone,
	})
	require.NoError(t, err)
	return ticket
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(newTestDB(t))

	hasAdmin, err := users.HasAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, hasAdmin)

	alice := createUser(t, users, "alice", model.RoleUser)
	createUser(t, users, "admin", model.RoleAdmin)
	assert.NotZero(t, alice.ID)

	found, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)
	assert.Equal(t, model.RoleUser, found.Role)

	byID, err := users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = users.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	exists, err := users.ExistsByUsernameOrEmail(ctx, "someone", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = users.ExistsByUsernameOrEmail(ctx, "someone", "someone@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	hasAdmin, err = users.HasAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, hasAdmin)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	dup := &model.User{Username: "alice", Email: "other@example.com", HashedPassword: "x", Role: model.RoleUser}
	assert.ErrorIs(t, users.Create(ctx, dup), apperrors.ErrUserAlreadyExists)
}

func TestTicketRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	gdb := newTestDB(t)
	users := NewUserRepository(gdb)
	tickets := NewTicketRepository(gdb)
	alice := createUser(t, users, "alice", model.RoleUser)

	created := createTicket(t, tickets, alice.ID, "Need help with my account access")
	assert.NotZero(t, created.ID)
	assert.Equal(t, "alice", created.Username)

	found, err := tickets.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Need help with my account access", found.Query)
	assert.Equal(t, model.TicketStatusOpen, found.Status)
	assert.Equal(t, model.ResponderNone, found.RespondedBy)
	assert.False(t, found.IsResolved)
	assert.Nil(t, found.UserSatisfied)
	assert.Nil(t, found.LLMResponse)

	_, err = tickets.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketRepository_List(t *testing.T) {
	ctx := context.Background()
	gdb := newTestDB(t)
	users := NewUserRepository(gdb)
	tickets := NewTicketRepository(gdb)
	alice := createUser(t, users, "alice", model.RoleUser)
	bob := createUser(t, users, "bob", model.RoleUser)

	first := createTicket(t, tickets, alice.ID, "first ticket from alice")
	second := createTicket(t, tickets, bob.ID, "first ticket from bob")
	third := createTicket(t, tickets, alice.ID, "second ticket from alice")

	resolved := true
	_, err := tickets.Update(ctx, third.ID, model.TicketPatch{IsResolved: &resolved})
	require.NoError(t, err)

	all, err := tickets.List(ctx, model.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, ids(all))

	owner := alice.ID
	mine, err := tickets.List(ctx, model.TicketFilter{OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID, first.ID}, ids(mine))
	for _, tk := range mine {
		assert.Equal(t, "alice", tk.Username)
	}

	done, err := tickets.List(ctx, model.TicketFilter{IsResolved: &resolved})
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID}, ids(done))

	status := model.TicketStatusClosed
	none, err := tickets.List(ctx, model.TicketFilter{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, none)

	page, err := tickets.List(ctx, model.TicketFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID}, ids(page))
}

func TestTicketRepository_Update(t *testing.T) {
	ctx := context.Background()
	gdb := newTestDB(t)
	users := NewUserRepository(gdb)
	tickets := NewTicketRepository(gdb).(*ticketRepository)
	alice := createUser(t, users, "alice", model.RoleUser)
	created := createTicket(t, tickets, alice.ID, "printer is on fire again")

	// A clock behind creation must not produce updated_at < created_at.
	tickets.now = func() time.Time { return created.CreatedAt.Add(-time.Hour) }

	status := model.TicketStatusResolved
	answer := "Turn it off and on again."
	responder := model.ResponderHuman
	updated, err := tickets.Update(ctx, created.ID, model.TicketPatch{
		Status:        &status,
		FinalResponse: &answer,
		RespondedBy:   &responder,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusResolved, updated.Status)
	require.NotNil(t, updated.FinalResponse)
	assert.Equal(t, answer, *updated.FinalResponse)
	assert.Equal(t, model.ResponderHuman, updated.RespondedBy)
	assert.Equal(t, created.Query, updated.Query)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	tickets.now = time.Now
	satisfied := false
	updated, err = tickets.Update(ctx, created.ID, model.TicketPatch{UserSatisfied: &satisfied})
	require.NoError(t, err)
	require.NotNil(t, updated.UserSatisfied)
	assert.False(t, *updated.UserSatisfied)
	assert.Equal(t, model.TicketStatusResolved, updated.Status)

	_, err = tickets.Update(ctx, 9999, model.TicketPatch{UserSatisfied: &satisfied})
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketRepository_Stats(t *testing.T) {
	ctx := context.Background()
	gdb := newTestDB(t)
	users := NewUserRepository(gdb)
	tickets := NewTicketRepository(gdb)
	alice := createUser(t, users, "alice", model.RoleUser)

	empty, err := tickets.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalTickets)
	assert.Empty(t, empty.TicketsByStatus)
	assert.Empty(t, empty.ResponseTypes)
	assert.Equal(t, int64(1), empty.TotalUsers)

	a := createTicket(t, tickets, alice.ID, "ticket number one here")
	b := createTicket(t, tickets, alice.ID, "ticket number two here")
	createTicket(t, tickets, alice.ID, "ticket number three here")

	yes, no := true, false
	resolved := model.TicketStatusResolved
	llm := model.ResponderLLM
	_, err = tickets.Update(ctx, a.ID, model.TicketPatch{Status: &resolved, IsResolved: &yes, UserSatisfied: &yes, RespondedBy: &llm})
	require.NoError(t, err)
	_, err = tickets.Update(ctx, b.ID, model.TicketPatch{UserSatisfied: &no})
	require.NoError(t, err)

	stats, err := tickets.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalTickets)
	assert.Equal(t, map[model.TicketStatus]int64{model.TicketStatusOpen: 2, model.TicketStatusResolved: 1}, stats.TicketsByStatus)
	assert.Equal(t, int64(1), stats.ResolvedTickets)
	assert.Equal(t, model.Satisfaction{Satisfied: 1, Unsatisfied: 1, NoResponse: 1}, stats.UserSatisfaction)
	assert.Equal(t, map[model.Responder]int64{model.ResponderLLM: 1, model.ResponderNone: 2}, stats.ResponseTypes)

	count, err := tickets.CountByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func ids(tickets []model.Ticket) []uint {
	out := make([]uint, len(tickets))
	for i, t := range tickets {
		out[i] = t.ID
	}
	return out
}
