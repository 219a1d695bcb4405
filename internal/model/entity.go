package model

import "time"

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
)

// Valid reports whether s is one of the closed set of lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

const PriorityHigh = "High"

type Ticket struct {
	TicketID        uint64       `gorm:"column:ticket_id;primaryKey" json:"ticket_id"`
	UserName        string       `gorm:"type:varchar(100);not null" json:"user_name"`
	UserEmail       string       `gorm:"type:varchar(100);not null" json:"user_email"`
	UserPhone       string       `gorm:"type:varchar(20);default:''" json:"user_phone"`
	Department      string       `gorm:"type:varchar(100);default:''" json:"department"`
	IssueCategory   string       `gorm:"type:varchar(64);index;not null" json:"issue_category"`
	Priority        string       `gorm:"type:varchar(32);index;not null" json:"priority"`
	Subject         string       `gorm:"type:varchar(255);not null" json:"subject"`
	Description     string       `gorm:"type:text;not null" json:"description"`
	Status          TicketStatus `gorm:"type:varchar(32);index;not null;default:'Open'" json:"status"`
	ResolutionNotes string       `gorm:"type:text;default:''" json:"resolution_notes"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func (Ticket) TableName() string { return "tickets" }

// TicketHistory is an append-only audit record of a status change.
type TicketHistory struct {
	ID                uint64    `gorm:"primaryKey" json:"id"`
	TicketID          uint64    `gorm:"column:ticket_id;index;not null" json:"ticket_id"`
	ChangedBy         string    `gorm:"type:varchar(100);not null" json:"changed_by"`
	NewStatus         string    `gorm:"type:varchar(32);not null" json:"new_status"`
	ChangeDescription string    `gorm:"type:varchar(255)" json:"change_description"`
	CreatedAt         time.Time `json:"created_at"`
}

func (TicketHistory) TableName() string { return "ticket_history" }

type Admin struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Admin) TableName() string { return "admins" }

// Stats is the dashboard snapshot: ticket counts by status plus high-priority load.
type Stats struct {
	Total        int64 `json:"total"`
	Open         int64 `json:"open"`
	InProgress   int64 `json:"in_progress"`
	Resolved     int64 `json:"resolved"`
	HighPriority int64 `json:"high_priority"`
}
