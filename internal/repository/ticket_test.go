package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Ticket{}, &model.TicketHistory{}, &model.Admin{}))
	return db
}

func seedTicket(t *testing.T, repo *TicketRepository, name, category, priority, subject string, createdAt time.Time) *model.Ticket {
	t.Helper()
	ticket := &model.Ticket{
		UserName:      name,
		UserEmail:     name + "@example.com",
		IssueCategory: category,
		Priority:      priority,
		Subject:       subject,
		Description:   "description for " + subject,
		Status:        model.TicketStatusOpen,
		CreatedAt:     createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), ticket))
	return ticket
}

func TestBuildTicketWhere(t *testing.T) {
	tests := []struct {
		name      string
		filter    TicketFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no filters",
			filter:    TicketFilter{},
			wantWhere: "1=1",
			wantArgs:  []any{},
		},
		{
			name:      "status only",
			filter:    TicketFilter{Status: "Open"},
			wantWhere: "1=1 AND status = ?",
			wantArgs:  []any{"Open"},
		},
		{
			name:      "status and priority keep argument order",
			filter:    TicketFilter{Status: "Resolved", Priority: "High"},
			wantWhere: "1=1 AND status = ? AND priority = ?",
			wantArgs:  []any{"Resolved", "High"},
		},
		{
			name:      "search expands to three placeholders",
			filter:    TicketFilter{Search: "vpn"},
			wantWhere: "1=1 AND (CAST(ticket_id AS TEXT) LIKE ? OR issue_category LIKE ? OR subject LIKE ?)",
			wantArgs:  []any{"%vpn%", "%vpn%", "%vpn%"},
		},
		{
			name:      "whitespace-only search adds no clause",
			filter:    TicketFilter{Search: "   "},
			wantWhere: "1=1",
			wantArgs:  []any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildTicketWhere(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	var last uint64
	for i := 0; i < 3; i++ {
		ticket := seedTicket(t, repo, fmt.Sprintf("user%d", i), "Network", "Low", "subject", time.Now())
		assert.Greater(t, ticket.TicketID, last)
		last = ticket.TicketID
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	oldest := seedTicket(t, repo, "alice", "Network", "Low", "oldest", base)
	middle := seedTicket(t, repo, "bob", "Network", "Low", "middle", base.Add(time.Hour))
	newest := seedTicket(t, repo, "carol", "Network", "Low", "newest", base.Add(2*time.Hour))

	items, err := repo.List(context.Background(), TicketFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, newest.TicketID, items[0].TicketID)
	assert.Equal(t, middle.TicketID, items[1].TicketID)
	assert.Equal(t, oldest.TicketID, items[2].TicketID)
}

func TestListFiltersAreConjunctive(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	now := time.Now()
	seedTicket(t, repo, "alice", "Network", "High", "VPN down", now)
	seedTicket(t, repo, "bob", "Hardware", "High", "Laptop broken", now.Add(time.Second))
	seedTicket(t, repo, "carol", "Network", "Low", "Slow wifi", now.Add(2*time.Second))

	items, err := repo.List(context.Background(), TicketFilter{Status: "Open", Priority: "High"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = repo.List(context.Background(), TicketFilter{Priority: "High", Search: "VPN"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "VPN down", items[0].Subject)
}

func TestListSearchMatchesIDCategoryAndSubject(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	now := time.Now()
	first := seedTicket(t, repo, "alice", "Network", "High", "VPN down", now)
	seedTicket(t, repo, "bob", "Hardware", "Low", "Printer jam", now.Add(time.Second))

	byID, err := repo.List(context.Background(), TicketFilter{Search: fmt.Sprint(first.TicketID)})
	require.NoError(t, err)
	require.NotEmpty(t, byID)

	byCategory, err := repo.List(context.Background(), TicketFilter{Search: "Hardw"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Printer jam", byCategory[0].Subject)

	bySubject, err := repo.List(context.Background(), TicketFilter{Search: "VPN"})
	require.NoError(t, err)
	require.Len(t, bySubject, 1)
	assert.Equal(t, first.TicketID, bySubject[0].TicketID)
}

func TestListNoMatchesReturnsEmptySlice(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	items, err := repo.List(context.Background(), TicketFilter{Status: "Resolved"})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func historyEntry(id uint64, status model.TicketStatus, actor string) *model.TicketHistory {
	return &model.TicketHistory{
		TicketID:          id,
		ChangedBy:         actor,
		NewStatus:         string(status),
		ChangeDescription: fmt.Sprintf("Status updated to %s", status),
	}
}

func TestUpdateStatusStampsResolvedAtOnlyOnResolved(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ticket := seedTicket(t, repo, "alice", "Network", "High", "VPN down", time.Now())
	ctx := context.Background()

	err := repo.UpdateStatus(ctx, ticket.TicketID, model.TicketStatusInProgress, "", historyEntry(ticket.TicketID, model.TicketStatusInProgress, "admin"))
	require.NoError(t, err)
	got, err := repo.GetByID(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusInProgress, got.Status)
	assert.Nil(t, got.ResolvedAt)

	err = repo.UpdateStatus(ctx, ticket.TicketID, model.TicketStatusResolved, "Fixed firewall rule", historyEntry(ticket.TicketID, model.TicketStatusResolved, "admin"))
	require.NoError(t, err)
	got, err = repo.GetByID(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusResolved, got.Status)
	assert.Equal(t, "Fixed firewall rule", got.ResolutionNotes)
	require.NotNil(t, got.ResolvedAt)
}

func TestUpdateStatusPreservesResolvedAt(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ticket := seedTicket(t, repo, "alice", "Network", "High", "VPN down", time.Now())
	ctx := context.Background()

	require.NoError(t, repo.UpdateStatus(ctx, ticket.TicketID, model.TicketStatusResolved, "done", historyEntry(ticket.TicketID, model.TicketStatusResolved, "admin")))
	resolved, err := repo.GetByID(ctx, ticket.TicketID)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	stamp := *resolved.ResolvedAt

	// Reopening must not clear the resolution timestamp.
	require.NoError(t, repo.UpdateStatus(ctx, ticket.TicketID, model.TicketStatusInProgress, "", historyEntry(ticket.TicketID, model.TicketStatusInProgress, "admin")))
	reopened, err := repo.GetByID(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusInProgress, reopened.Status)
	require.NotNil(t, reopened.ResolvedAt)
	assert.WithinDuration(t, stamp, *reopened.ResolvedAt, time.Millisecond)
}

func TestUpdateStatusAppendsExactlyOneHistoryEntry(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ticket := seedTicket(t, repo, "alice", "Network", "High", "VPN down", time.Now())
	ctx := context.Background()

	require.NoError(t, repo.UpdateStatus(ctx, ticket.TicketID, model.TicketStatusResolved, "", historyEntry(ticket.TicketID, model.TicketStatusResolved, "root")))

	entries, err := repo.ListHistory(ctx, ticket.TicketID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Resolved", entries[0].NewStatus)
	assert.Equal(t, "root", entries[0].ChangedBy)
	assert.Equal(t, "Status updated to Resolved", entries[0].ChangeDescription)
}

func TestUpdateStatusUnknownTicketRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewTicketRepository(db)
	ctx := context.Background()

	err := repo.UpdateStatus(ctx, 999, model.TicketStatusResolved, "", historyEntry(999, model.TicketStatusResolved, "admin"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrTicketNotFound))

	// The transaction must leave no orphan history row behind.
	var n int64
	require.NoError(t, db.Model(&model.TicketHistory{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestStatsEmptyTableIsAllZero(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &model.Stats{}, stats)
}

func TestStatsCountsByStatusAndPriority(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now()
	first := seedTicket(t, repo, "alice", "Network", "High", "VPN down", now)
	seedTicket(t, repo, "bob", "Hardware", "Low", "Printer jam", now.Add(time.Second))
	third := seedTicket(t, repo, "carol", "Software", "High", "Excel crash", now.Add(2*time.Second))

	require.NoError(t, repo.UpdateStatus(ctx, first.TicketID, model.TicketStatusResolved, "", historyEntry(first.TicketID, model.TicketStatusResolved, "admin")))
	require.NoError(t, repo.UpdateStatus(ctx, third.TicketID, model.TicketStatusInProgress, "", historyEntry(third.TicketID, model.TicketStatusInProgress, "admin")))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Open)
	assert.Equal(t, int64(1), stats.InProgress)
	assert.Equal(t, int64(1), stats.Resolved)
	assert.Equal(t, int64(2), stats.HighPriority)
}
