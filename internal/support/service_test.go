package support

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greengomarket/greengo-backend/pkg/enums"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
	"github.com/greengomarket/greengo-backend/pkg/pagination"
)

func setupSupportTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	tickets := `
CREATE TABLE IF NOT EXISTS support_tickets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  order_id TEXT,
  message TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'Open',
  replies TEXT NOT NULL DEFAULT '[]',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(tickets).Error)
	require.NoError(t, db.Exec(`DELETE FROM support_tickets`).Error)
	return db
}

func newTestSupport(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(setupSupportTestDB(t)))
	require.NoError(t, err)
	return svc
}

func ticketInput() CreateTicketInput {
	return CreateTicketInput{
		Name:    "A Shopper",
		Email:   "shopper@greengo.test",
		Message: "My carrots never arrived",
	}
}

func TestCreateTicketStartsOpen(t *testing.T) {
	svc := newTestSupport(t)

	ticket, err := svc.CreateTicket(context.Background(), "user-1", ticketInput())
	require.NoError(t, err)

	assert.Equal(t, enums.TicketStatusOpen, ticket.Status)
	assert.NotEmpty(t, ticket.ID)
	assert.Empty(t, ticket.Replies)
	assert.Nil(t, ticket.OrderID)
}

func TestCreateTicketWithOrderReference(t *testing.T) {
	svc := newTestSupport(t)

	orderID := "ORD-1748781000000"
	input := ticketInput()
	input.OrderID = &orderID

	ticket, err := svc.CreateTicket(context.Background(), "user-1", input)
	require.NoError(t, err)
	require.NotNil(t, ticket.OrderID)
	assert.Equal(t, orderID, *ticket.OrderID)
}

func TestCreateTicketValidation(t *testing.T) {
	svc := newTestSupport(t)
	ctx := context.Background()

	input := ticketInput()
	input.Message = "  "
	_, err := svc.CreateTicket(ctx, "user-1", input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.CreateTicket(ctx, "", ticketInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestGetTicketOwnership(t *testing.T) {
	svc := newTestSupport(t)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, "user-1", ticketInput())
	require.NoError(t, err)

	// Owner sees it.
	got, err := svc.GetTicket(ctx, ticket.ID, "user-1", false)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)

	// Another customer does not.
	_, err = svc.GetTicket(ctx, ticket.ID, "user-2", false)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	// An admin does.
	got, err = svc.GetTicket(ctx, ticket.ID, "admin-1", true)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)
}

func TestAppendReplyThreads(t *testing.T) {
	svc := newTestSupport(t)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, "user-1", ticketInput())
	require.NoError(t, err)

	updated, err := svc.AppendReply(ctx, ticket.ID, "admin-1", true, "Looking into it now")
	require.NoError(t, err)
	require.Len(t, updated.Replies, 1)
	assert.Equal(t, "admin-1", updated.Replies[0].AuthorID)

	updated, err = svc.AppendReply(ctx, ticket.ID, "user-1", false, "Thanks, still waiting")
	require.NoError(t, err)
	require.Len(t, updated.Replies, 2)
	assert.Equal(t, "user-1", updated.Replies[1].AuthorID)
	assert.False(t, updated.Replies[1].Timestamp.IsZero())
}

func TestAppendReplyBlockedWhenResolved(t *testing.T) {
	svc := newTestSupport(t)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, "user-1", ticketInput())
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, ticket.ID, enums.TicketStatusResolved)
	require.NoError(t, err)

	_, err = svc.AppendReply(ctx, ticket.ID, "user-1", false, "One more thing")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// Reopening unblocks the thread.
	_, err = svc.SetStatus(ctx, ticket.ID, enums.TicketStatusOpen)
	require.NoError(t, err)

	updated, err := svc.AppendReply(ctx, ticket.ID, "user-1", false, "One more thing")
	require.NoError(t, err)
	assert.Len(t, updated.Replies, 1)
}

func TestAppendReplyOwnershipEnforced(t *testing.T) {
	svc := newTestSupport(t)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, "user-1", ticketInput())
	require.NoError(t, err)

	_, err = svc.AppendReply(ctx, ticket.ID, "user-2", false, "Not my thread")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestSetStatusFlatSet(t *testing.T) {
	svc := newTestSupport(t)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, "user-1", ticketInput())
	require.NoError(t, err)

	updated, err := svc.SetStatus(ctx, ticket.ID, enums.TicketStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, enums.TicketStatusInProgress, updated.Status)

	updated, err = svc.SetStatus(ctx, ticket.ID, enums.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, enums.TicketStatusResolved, updated.Status)

	// Any-to-any includes going straight back to Open.
	updated, err = svc.SetStatus(ctx, ticket.ID, enums.TicketStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, enums.TicketStatusOpen, updated.Status)
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	svc := newTestSupport(t)

	_, err := svc.SetStatus(context.Background(), "tid", "Escalated")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListMyTickets(t *testing.T) {
	svc := newTestSupport(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.CreateTicket(ctx, "user-1", ticketInput())
		require.NoError(t, err)
	}
	_, err := svc.CreateTicket(ctx, "user-2", ticketInput())
	require.NoError(t, err)

	mine, err := svc.ListMyTickets(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestListAllTicketsPaginates(t *testing.T) {
	svc := newTestSupport(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.CreateTicket(ctx, "user-1", ticketInput())
		require.NoError(t, err)
	}

	page, err := svc.ListAllTickets(ctx, pagination.Params{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Tickets, 3)
	require.NotNil(t, page.NextCursor)

	rest, err := svc.ListAllTickets(ctx, pagination.Params{Limit: 3, Cursor: *page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Tickets, 1)
	assert.Nil(t, rest.NextCursor)
}

func TestTicketNotFound(t *testing.T) {
	svc := newTestSupport(t)

	_, err := svc.GetTicket(context.Background(), "missing", "user-1", false)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
