package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/kafka"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/repository"
)

const (
	EventTicketCreated       = "ticket.created"
	EventTicketStatusUpdated = "ticket.status_updated"

	defaultActor = "admin"
)

// TicketServicer — интерфейс для HTTP-слоя (Dependency Inversion).
type TicketServicer interface {
	Create(ctx context.Context, in *CreateTicketInput) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	List(ctx context.Context, status, priority, search string) ([]model.Ticket, error)
	UpdateStatus(ctx context.Context, actor string, id uint64, status, resolutionNotes string) error
	History(ctx context.Context, id uint64) ([]model.TicketHistory, error)
	DashboardStats(ctx context.Context) (*model.Stats, error)
}

// CreateTicketInput carries the submission form fields. user_phone and
// department are optional; everything else is required.
type CreateTicketInput struct {
	UserName      string
	UserEmail     string
	UserPhone     string
	Department    string
	IssueCategory string
	Priority      string
	Subject       string
	Description   string
}

// validate rejects the first missing required field, in the declared order.
func (in *CreateTicketInput) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"user_name", in.UserName},
		{"user_email", in.UserEmail},
		{"issue_category", in.IssueCategory},
		{"priority", in.Priority},
		{"subject", in.Subject},
		{"description", in.Description},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return errs.MissingField(f.name)
		}
	}
	return nil
}

type TicketService struct {
	repo     *repository.TicketRepository
	producer kafka.TicketEventProducer
}

func NewTicketService(repo *repository.TicketRepository, producer kafka.TicketEventProducer) *TicketService {
	return &TicketService{repo: repo, producer: producer}
}

func (s *TicketService) Create(ctx context.Context, in *CreateTicketInput) (uint64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}
	ticket := &model.Ticket{
		UserName:      in.UserName,
		UserEmail:     in.UserEmail,
		UserPhone:     in.UserPhone,
		Department:    in.Department,
		IssueCategory: in.IssueCategory,
		Priority:      in.Priority,
		Subject:       in.Subject,
		Description:   in.Description,
		Status:        model.TicketStatusOpen,
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return 0, err
	}
	s.emitTicketEvent(EventTicketCreated, ticket, "")
	return ticket.TicketID, nil
}

func (s *TicketService) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	return s.repo.GetByID(ctx, id)
}

// List normalizes the "all" sentinel filter values from the query string and
// delegates to the repository.
func (s *TicketService) List(ctx context.Context, status, priority, search string) ([]model.Ticket, error) {
	f := repository.TicketFilter{Search: search}
	if status != "" && status != "all" {
		f.Status = status
	}
	if priority != "" && priority != "all" {
		f.Priority = priority
	}
	return s.repo.List(ctx, f)
}

// UpdateStatus validates the new status against the closed enum, applies the
// change and appends exactly one history entry. actor defaults to "admin"
// when the caller identity is absent.
func (s *TicketService) UpdateStatus(ctx context.Context, actor string, id uint64, status, resolutionNotes string) error {
	if strings.TrimSpace(status) == "" {
		return errs.InvalidField("status", "Status required")
	}
	st := model.TicketStatus(status)
	if !st.Valid() {
		return errs.InvalidField("status", fmt.Sprintf("Invalid status: %s", status))
	}
	if actor == "" {
		actor = defaultActor
	}
	entry := &model.TicketHistory{
		TicketID:          id,
		ChangedBy:         actor,
		NewStatus:         string(st),
		ChangeDescription: fmt.Sprintf("Status updated to %s", st),
	}
	if err := s.repo.UpdateStatus(ctx, id, st, resolutionNotes, entry); err != nil {
		return err
	}
	s.emitTicketEvent(EventTicketStatusUpdated, &model.Ticket{TicketID: id, Status: st}, actor)
	return nil
}

func (s *TicketService) History(ctx context.Context, id uint64) ([]model.TicketHistory, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, id)
}

func (s *TicketService) DashboardStats(ctx context.Context) (*model.Stats, error) {
	return s.repo.Stats(ctx)
}

// emitTicketEvent publishes best-effort in a bounded goroutine so a slow or
// absent broker never blocks a request.
func (s *TicketService) emitTicketEvent(event string, t *model.Ticket, actor string) {
	if s.producer == nil {
		return
	}
	ev := kafka.TicketEvent{
		Event:    event,
		TicketID: int64(t.TicketID),
		Status:   string(t.Status),
		Priority: t.Priority,
		Subject:  t.Subject,
		Actor:    actor,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.producer.ProduceTicketEvent(ctx, ev)
	}()
}
