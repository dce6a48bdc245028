package orders

import (
	"time"

	"github.com/greengomarket/greengo-backend/pkg/db/models"
	"github.com/greengomarket/greengo-backend/pkg/enums"
)

// OrderDTO is the transport shape for order records.
type OrderDTO struct {
	ID        string               `json:"id"`
	UserID    *string              `json:"user_id,omitempty"`
	UserEmail string               `json:"user_email"`
	Name      string               `json:"name"`
	Phone     string               `json:"phone"`
	Address   string               `json:"address"`
	Delivery  enums.DeliveryMethod `json:"delivery"`
	Items     models.CartLines     `json:"items"`
	Total     int                  `json:"total"`
	Status    enums.OrderStatus    `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// PlaceOrderInput holds validated checkout details.
type PlaceOrderInput struct {
	Email    string
	Name     string
	Phone    string
	Address  string
	Delivery enums.DeliveryMethod
}

// OrderListResult is one admin page of orders.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// FromModel maps an order row to its DTO.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:        o.ID,
		UserID:    o.UserID,
		UserEmail: o.UserEmail,
		Name:      o.Name,
		Phone:     o.Phone,
		Address:   o.Address,
		Delivery:  o.Delivery,
		Items:     o.Items,
		Total:     o.Total,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// FromModels maps an order slice to DTOs.
func FromModels(orders []models.Order) []OrderDTO {
	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, *FromModel(&orders[i]))
	}
	return dtos
}
