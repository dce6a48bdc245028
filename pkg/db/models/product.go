package models

import (
	"time"

	"github.com/greengomarket/greengo-backend/pkg/enums"
)

// Product is a catalog entry. The id doubles as a provenance marker: seed
// products shipped with the application keep their original all-digit ids,
// while store-added products get generated opaque ids. Deletability is keyed
// off that shape (see catalog.IsSeedID).
type Product struct {
	ID        string                `gorm:"column:id;type:text;primaryKey"`
	Name      string                `gorm:"column:name;not null"`
	Price     int                   `gorm:"column:price;not null"`
	Image     string                `gorm:"column:image;not null"`
	Category  enums.ProductCategory `gorm:"column:category;type:text;not null"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
