package models

import (
	"time"

	"github.com/greengomarket/greengo-backend/pkg/enums"
)

// Order is an immutable record of checkout intent. Line items and the total
// are snapshotted from the cart; only the status field mutates afterwards.
type Order struct {
	ID        string               `gorm:"column:id;type:text;primaryKey"`
	UserID    *string              `gorm:"column:user_id;type:text;index"`
	UserEmail string               `gorm:"column:user_email;type:text;index"`
	Name      string               `gorm:"column:name;not null"`
	Phone     string               `gorm:"column:phone;not null"`
	Address   string               `gorm:"column:address;not null"`
	Delivery  enums.DeliveryMethod `gorm:"column:delivery;type:text;not null"`
	Items     CartLines            `gorm:"column:items;type:jsonb;serializer:json"`
	Total     int                  `gorm:"column:total;not null"`
	Status    enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
