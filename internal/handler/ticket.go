package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/service"
	"github.com/rs/zerolog"
)

// timeLayout is the wire format for all ticket timestamps.
const timeLayout = "2006-01-02 15:04:05"

type TicketHandler struct {
	svc service.TicketServicer
	log zerolog.Logger
}

func NewTicketHandler(svc service.TicketServicer, log zerolog.Logger) *TicketHandler {
	return &TicketHandler{svc: svc, log: log}
}

type submitTicketRequest struct {
	UserName      string `json:"user_name"`
	UserEmail     string `json:"user_email"`
	UserPhone     string `json:"user_phone"`
	Department    string `json:"department"`
	IssueCategory string `json:"issue_category"`
	Priority      string `json:"priority"`
	Subject       string `json:"subject"`
	Description   string `json:"description"`
}

// ticketResponse serializes timestamps as "YYYY-MM-DD HH:MM:SS"; an unset
// resolved_at stays absent, never a placeholder.
type ticketResponse struct {
	TicketID        uint64  `json:"ticket_id"`
	UserName        string  `json:"user_name"`
	UserEmail       string  `json:"user_email"`
	UserPhone       string  `json:"user_phone"`
	Department      string  `json:"department"`
	IssueCategory   string  `json:"issue_category"`
	Priority        string  `json:"priority"`
	Subject         string  `json:"subject"`
	Description     string  `json:"description"`
	Status          string  `json:"status"`
	ResolutionNotes string  `json:"resolution_notes"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	ResolvedAt      *string `json:"resolved_at,omitempty"`
}

func newTicketResponse(t *model.Ticket) ticketResponse {
	resp := ticketResponse{
		TicketID:        t.TicketID,
		UserName:        t.UserName,
		UserEmail:       t.UserEmail,
		UserPhone:       t.UserPhone,
		Department:      t.Department,
		IssueCategory:   t.IssueCategory,
		Priority:        t.Priority,
		Subject:         t.Subject,
		Description:     t.Description,
		Status:          string(t.Status),
		ResolutionNotes: t.ResolutionNotes,
		CreatedAt:       t.CreatedAt.Format(timeLayout),
		UpdatedAt:       t.UpdatedAt.Format(timeLayout),
	}
	if t.ResolvedAt != nil {
		s := t.ResolvedAt.Format(timeLayout)
		resp.ResolvedAt = &s
	}
	return resp
}

// Submit handles POST /submit-ticket (public).
func (h *TicketHandler) Submit(c *gin.Context) {
	var req submitTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body"})
		return
	}
	id, err := h.svc.Create(c.Request.Context(), &service.CreateTicketInput{
		UserName:      req.UserName,
		UserEmail:     req.UserEmail,
		UserPhone:     req.UserPhone,
		Department:    req.Department,
		IssueCategory: req.IssueCategory,
		Priority:      req.Priority,
		Subject:       req.Subject,
		Description:   req.Description,
	})
	if err != nil {
		if ve, ok := errs.AsValidation(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": ve.Message})
			return
		}
		h.log.Error().Err(err).Msg("create ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"ticket_id": id,
		"message":   "Ticket created successfully",
	})
}

// List handles GET /api/tickets with status/priority/search filters.
func (h *TicketHandler) List(c *gin.Context) {
	status := c.DefaultQuery("status", "all")
	priority := c.DefaultQuery("priority", "all")
	search := c.Query("search")

	items, err := h.svc.List(c.Request.Context(), status, priority, search)
	if err != nil {
		h.log.Error().Err(err).Msg("list tickets")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}
	out := make([]ticketResponse, 0, len(items))
	for i := range items {
		out = append(out, newTicketResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tickets": out})
}

// Get handles GET /api/tickets/:id.
func (h *TicketHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Ticket not found"})
			return
		}
		h.log.Error().Err(err).Uint64("ticket_id", id).Msg("get ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": newTicketResponse(t)})
}

type updateStatusRequest struct {
	Status          string `json:"status"`
	ResolutionNotes string `json:"resolution_notes"`
}

// UpdateStatus handles PUT /api/tickets/:id/status. The acting admin comes
// from the auth middleware, never from ambient state.
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body"})
		return
	}
	actor := c.GetString(auth.ContextAdminKey)
	if err := h.svc.UpdateStatus(c.Request.Context(), actor, id, req.Status, req.ResolutionNotes); err != nil {
		if ve, ok := errs.AsValidation(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": ve.Message})
			return
		}
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Ticket not found"})
			return
		}
		h.log.Error().Err(err).Uint64("ticket_id", id).Msg("update ticket status")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated"})
}

// History handles GET /api/tickets/:id/history, newest change first.
func (h *TicketHandler) History(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return
	}
	items, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Ticket not found"})
			return
		}
		h.log.Error().Err(err).Uint64("ticket_id", id).Msg("ticket history")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}
	type historyResponse struct {
		TicketID          uint64 `json:"ticket_id"`
		ChangedBy         string `json:"changed_by"`
		NewStatus         string `json:"new_status"`
		ChangeDescription string `json:"change_description"`
		ChangedAt         string `json:"changed_at"`
	}
	out := make([]historyResponse, 0, len(items))
	for _, e := range items {
		out = append(out, historyResponse{
			TicketID:          e.TicketID,
			ChangedBy:         e.ChangedBy,
			NewStatus:         e.NewStatus,
			ChangeDescription: e.ChangeDescription,
			ChangedAt:         e.CreatedAt.Format(timeLayout),
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": out})
}

// DashboardStats handles GET /api/dashboard-stats. The snapshot is recomputed
// fully on every call.
func (h *TicketHandler) DashboardStats(c *gin.Context) {
	stats, err := h.svc.DashboardStats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard stats")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
