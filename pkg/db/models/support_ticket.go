package models

import (
	"time"

	"github.com/greengomarket/greengo-backend/pkg/enums"
)

// TicketReply is one message in a ticket thread, from either the customer or
// an admin.
type TicketReply struct {
	AuthorID  string    `json:"author_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketReplies is stored as a single document; appends rewrite the array.
type TicketReplies []TicketReply

// SupportTicket is a customer-opened message thread with admin replies.
type SupportTicket struct {
	ID        string             `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string             `gorm:"column:user_id;type:text;not null;index"`
	Name      string             `gorm:"column:name;not null"`
	Email     string             `gorm:"column:email;not null"`
	OrderID   *string            `gorm:"column:order_id;type:text"`
	Message   string             `gorm:"column:message;not null"`
	Status    enums.TicketStatus `gorm:"column:status;type:text;not null;default:'Open'"`
	Replies   TicketReplies      `gorm:"column:replies;type:jsonb;serializer:json"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
