package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "helphub/internal/errors"
	"helphub/internal/model"
)

// TicketRepository defines ticket persistence operations.
type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)
	FindByID(ctx context.Context, id uint) (*model.Ticket, error)
	List(ctx context.Context, filter model.TicketFilter) ([]model.Ticket, error)
	Update(ctx context.Context, id uint, patch model.TicketPatch) (*model.Ticket, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	Stats(ctx context.Context) (*model.TicketStats, error)
}

type ticketRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTicketRepository builds a GORM-backed ticket repository.
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db, now: time.Now}
}

// Create inserts ticket and returns the row as stored.
func (r *ticketRepository) Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	var stored *model.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(ticket).Error; err != nil {
			return fmt.Errorf("insert ticket for user %d: %w", ticket.UserID, err)
		}
		var err error
		stored, err = findTicket(tx, ticket.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id uint) (*model.Ticket, error) {
	return findTicket(r.db.WithContext(ctx), id)
}

func (r *ticketRepository) List(ctx context.Context, filter model.TicketFilter) ([]model.Ticket, error) {
	q := r.db.WithContext(ctx).Model(&model.Ticket{}).Preload("User")
	if filter.OwnerID != nil {
		q = q.Where("user_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.IsResolved != nil {
		q = q.Where("is_resolved = ?", *filter.IsResolved)
	}
	if filter.RespondedBy != nil {
		q = q.Where("responded_by = ?", *filter.RespondedBy)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = model.DefaultListLimit
	}
	if limit > model.MaxListLimit {
		limit = model.MaxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var tickets []model.Ticket
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	for i := range tickets {
		tickets[i].Username = tickets[i].User.Username
	}
	return tickets, nil
}

// Update applies patch to ticket id and stamps updated_at inside one
// transaction, returning the re-read row.
func (r *ticketRepository) Update(ctx context.Context, id uint, patch model.TicketPatch) (*model.Ticket, error) {
	var updated *model.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findTicket(tx, id)
		if err != nil {
			return err
		}

		changes := patch.Columns()
		stamp := r.now()
		if stamp.Before(existing.CreatedAt) {
			stamp = existing.CreatedAt
		}
		changes["updated_at"] = stamp

		if err := tx.Model(&model.Ticket{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return fmt.Errorf("update ticket %d: %w", id, err)
		}
		updated, err = findTicket(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ticketRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("user_id = ?", ownerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count tickets for user %d: %w", ownerID, err)
	}
	return count, nil
}

type groupCount struct {
	GroupKey string
	Count    int64
}

func (r *ticketRepository) Stats(ctx context.Context) (*model.TicketStats, error) {
	stats := &model.TicketStats{
		TicketsByStatus: make(map[model.TicketStatus]int64),
		ResponseTypes:   make(map[model.Responder]int64),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tickets := func() *gorm.DB { return tx.Model(&model.Ticket{}) }

		if err := tickets().Count(&stats.TotalTickets).Error; err != nil {
			return fmt.Errorf("count tickets: %w", err)
		}

		var byStatus []groupCount
		if err := tickets().Select("status AS group_key, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
			return fmt.Errorf("count tickets by status: %w", err)
		}
		for _, g := range byStatus {
			stats.TicketsByStatus[model.TicketStatus(g.GroupKey)] = g.Count
		}

		if err := tickets().Where("is_resolved = ?", true).Count(&stats.ResolvedTickets).Error; err != nil {
			return fmt.Errorf("count resolved tickets: %w", err)
		}

		sat := &stats.UserSatisfaction
		if err := tickets().Where("user_satisfied = ?", true).Count(&sat.Satisfied).Error; err != nil {
			return fmt.Errorf("count satisfied tickets: %w", err)
		}
		if err := tickets().Where("user_satisfied = ?", false).Count(&sat.Unsatisfied).Error; err != nil {
			return fmt.Errorf("count unsatisfied tickets: %w", err)
		}
		if err := tickets().Where("user_satisfied IS NULL").Count(&sat.NoResponse).Error; err != nil {
			return fmt.Errorf("count unrated tickets: %w", err)
		}

		var byResponder []groupCount
		if err := tickets().Select("responded_by AS group_key, COUNT(*) AS count").Group("responded_by").Scan(&byResponder).Error; err != nil {
			return fmt.Errorf("count tickets by responder: %w", err)
		}
		for _, g := range byResponder {
			stats.ResponseTypes[model.Responder(g.GroupKey)] = g.Count
		}

		if err := tx.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func findTicket(db *gorm.DB, id uint) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := db.Preload("User").First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("find ticket %d: %w", id, err)
	}
	ticket.Username = ticket.User.Username
	return &ticket, nil
}
