package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"gorm.io/gorm"
)

// TicketFilter describes the conjunctive listing filter. Empty fields add no
// clause; Search matches as a substring against ticket id, issue category and
// subject.
type TicketFilter struct {
	Status   string
	Priority string
	Search   string
}

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *model.Ticket) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TicketRepository) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	if err := r.db.WithContext(ctx).First(&t, "ticket_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// buildTicketWhere composes the WHERE clause and its arguments in lockstep so
// placeholder order always matches argument order.
func buildTicketWhere(f TicketFilter) (string, []any) {
	conds := []string{"1=1"}
	args := []any{}

	if s := strings.TrimSpace(f.Status); s != "" {
		args = append(args, s)
		conds = append(conds, "status = ?")
	}
	if p := strings.TrimSpace(f.Priority); p != "" {
		args = append(args, p)
		conds = append(conds, "priority = ?")
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + q + "%"
		args = append(args, like, like, like)
		conds = append(conds, "(CAST(ticket_id AS TEXT) LIKE ? OR issue_category LIKE ? OR subject LIKE ?)")
	}

	return strings.Join(conds, " AND "), args
}

// List returns matching tickets newest first. No matches yields an empty
// slice, not an error.
func (r *TicketRepository) List(ctx context.Context, f TicketFilter) ([]model.Ticket, error) {
	where, args := buildTicketWhere(f)
	items := []model.Ticket{}
	err := r.db.WithContext(ctx).
		Where(where, args...).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateStatus applies the status change and appends the history entry in one
// transaction; a failure of either write rolls back both. resolved_at is
// stamped only on a transition to Resolved and is never cleared afterwards.
func (r *TicketRepository) UpdateStatus(ctx context.Context, id uint64, status model.TicketStatus, notes string, entry *model.TicketHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changes := map[string]any{
			"status":           status,
			"resolution_notes": notes,
			"updated_at":       time.Now(),
		}
		if status == model.TicketStatusResolved {
			changes["resolved_at"] = time.Now()
		}
		res := tx.Model(&model.Ticket{}).Where("ticket_id = ?", id).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrTicketNotFound
		}
		return tx.Create(entry).Error
	})
}

// ListHistory returns the audit trail for one ticket, newest first.
func (r *TicketRepository) ListHistory(ctx context.Context, ticketID uint64) ([]model.TicketHistory, error) {
	items := []model.TicketHistory{}
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Stats computes the dashboard snapshot in a single aggregate query. Counts
// come back zero, never null, on an empty table.
func (r *TicketRepository) Stats(ctx context.Context) (*model.Stats, error) {
	var s model.Stats
	err := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS open, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS in_progress, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS resolved, "+
				"COALESCE(SUM(CASE WHEN priority = ? THEN 1 ELSE 0 END), 0) AS high_priority",
			model.TicketStatusOpen, model.TicketStatusInProgress, model.TicketStatusResolved, model.PriorityHigh,
		).
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
