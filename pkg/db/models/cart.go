package models

import (
	"time"

	"github.com/greengomarket/greengo-backend/pkg/enums"
)

// CartLine is a single product entry in a cart. Product fields are
// denormalized at add time: later catalog edits never touch existing lines.
type CartLine struct {
	ProductID string                `json:"product_id"`
	Name      string                `json:"name"`
	Price     int                   `json:"price"`
	Image     string                `json:"image"`
	Category  enums.ProductCategory `json:"category"`
	Quantity  int                   `json:"quantity"`
}

// CartLines is the document stored per cart owner.
type CartLines []CartLine

// Quantity returns the line quantity for the given product, zero if absent.
func (lines CartLines) Quantity(productID string) int {
	for _, line := range lines {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// ItemCount sums the quantities across all lines.
func (lines CartLines) ItemCount() int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

// Total sums price*quantity across all lines.
func (lines CartLines) Total() int {
	total := 0
	for _, line := range lines {
		total += line.Price * line.Quantity
	}
	return total
}

// Cart is the remote (authenticated) cart document, one per user. The whole
// line set is rewritten on every mutation; there are no delta writes.
type Cart struct {
	OwnerID   string    `gorm:"column:owner_id;type:text;primaryKey"`
	Items     CartLines `gorm:"column:items;type:jsonb;serializer:json"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
