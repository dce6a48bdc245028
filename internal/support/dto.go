package support

import (
	"time"

	"github.com/greengomarket/greengo-backend/pkg/db/models"
	"github.com/greengomarket/greengo-backend/pkg/enums"
)

// TicketDTO is the transport shape for support tickets.
type TicketDTO struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Name      string               `json:"name"`
	Email     string               `json:"email"`
	OrderID   *string              `json:"order_id,omitempty"`
	Message   string               `json:"message"`
	Status    enums.TicketStatus   `json:"status"`
	Replies   models.TicketReplies `json:"replies"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// CreateTicketInput holds the customer's initial submission.
type CreateTicketInput struct {
	Name    string
	Email   string
	OrderID *string
	Message string
}

// TicketListResult is one admin page of tickets.
type TicketListResult struct {
	Tickets    []TicketDTO `json:"tickets"`
	NextCursor *string     `json:"next_cursor,omitempty"`
}

// FromModel maps a ticket row to its DTO.
func FromModel(t *models.SupportTicket) *TicketDTO {
	if t == nil {
		return nil
	}
	replies := t.Replies
	if replies == nil {
		replies = models.TicketReplies{}
	}
	return &TicketDTO{
		ID:        t.ID,
		UserID:    t.UserID,
		Name:      t.Name,
		Email:     t.Email,
		OrderID:   t.OrderID,
		Message:   t.Message,
		Status:    t.Status,
		Replies:   replies,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// FromModels maps a ticket slice to DTOs.
func FromModels(tickets []models.SupportTicket) []TicketDTO {
	dtos := make([]TicketDTO, 0, len(tickets))
	for i := range tickets {
		dtos = append(dtos, *FromModel(&tickets[i]))
	}
	return dtos
}
