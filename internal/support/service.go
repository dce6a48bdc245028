package support

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greengomarket/greengo-backend/pkg/db/models"
	"github.com/greengomarket/greengo-backend/pkg/enums"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
	"github.com/greengomarket/greengo-backend/pkg/pagination"
)

// Service exposes support ticket operations.
type Service interface {
	CreateTicket(ctx context.Context, userID string, input CreateTicketInput) (*TicketDTO, error)
	GetTicket(ctx context.Context, ticketID, requesterID string, admin bool) (*TicketDTO, error)
	ListMyTickets(ctx context.Context, userID string) ([]TicketDTO, error)
	ListAllTickets(ctx context.Context, params pagination.Params) (*TicketListResult, error)
	AppendReply(ctx context.Context, ticketID, authorID string, admin bool, message string) (*TicketDTO, error)
	SetStatus(ctx context.Context, ticketID string, status enums.TicketStatus) (*TicketDTO, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs a support service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("support repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// CreateTicket opens a new thread. Tickets always start Open with an empty
// reply list; the customer's opening message lives on the ticket itself.
func (s *service) CreateTicket(ctx context.Context, userID string, input CreateTicketInput) (*TicketDTO, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	ticket := &models.SupportTicket{
		ID:      uuid.NewString(),
		UserID:  userID,
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.ToLower(strings.TrimSpace(input.Email)),
		OrderID: input.OrderID,
		Message: strings.TrimSpace(input.Message),
		Status:  enums.TicketStatusOpen,
		Replies: models.TicketReplies{},
	}

	created, err := s.repo.Create(ctx, ticket)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting support ticket")
	}
	return FromModel(created), nil
}

// GetTicket loads a single thread. Customers only see their own tickets;
// admins see everything.
func (s *service) GetTicket(ctx context.Context, ticketID, requesterID string, admin bool) (*TicketDTO, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !admin && ticket.UserID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "ticket belongs to another user")
	}
	return FromModel(ticket), nil
}

func (s *service) ListMyTickets(ctx context.Context, userID string) ([]TicketDTO, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	tickets, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing support tickets")
	}
	return FromModels(tickets), nil
}

func (s *service) ListAllTickets(ctx context.Context, params pagination.Params) (*TicketListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	tickets, err := s.repo.ListPage(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing support tickets")
	}

	result := &TicketListResult{}
	if len(tickets) > limit {
		tickets = tickets[:limit]
		last := tickets[len(tickets)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	result.Tickets = FromModels(tickets)
	return result, nil
}

// AppendReply adds one message to the thread. A Resolved ticket no longer
// accepts replies; an admin has to reopen it first.
func (s *service) AppendReply(ctx context.Context, ticketID, authorID string, admin bool, message string) (*TicketDTO, error) {
	if strings.TrimSpace(message) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !admin && ticket.UserID != authorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "ticket belongs to another user")
	}
	if ticket.Status == enums.TicketStatusResolved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is resolved and no longer accepts replies")
	}

	ticket.Replies = append(ticket.Replies, models.TicketReply{
		AuthorID:  authorID,
		Message:   strings.TrimSpace(message),
		Timestamp: s.now(),
	})

	saved, err := s.repo.Save(ctx, ticket)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving support ticket")
	}
	return FromModel(saved), nil
}

// SetStatus moves the ticket to the given status. The status set is flat:
// any-to-any, including reopening a Resolved ticket.
func (s *service) SetStatus(ctx context.Context, ticketID string, status enums.TicketStatus) (*TicketDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown ticket status %q", status))
	}

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Status = status

	saved, err := s.repo.Save(ctx, ticket)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving support ticket")
	}
	return FromModel(saved), nil
}

func (s *service) load(ctx context.Context, ticketID string) (*models.SupportTicket, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading support ticket")
	}
	return ticket, nil
}
