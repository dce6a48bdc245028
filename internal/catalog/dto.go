package catalog

import (
	"time"

	"github.com/greengomarket/greengo-backend/pkg/db/models"
	"github.com/greengomarket/greengo-backend/pkg/enums"
)

// ProductDTO is the transport shape for catalog entries.
type ProductDTO struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Price     int                   `json:"price"`
	Image     string                `json:"image"`
	Category  enums.ProductCategory `json:"category"`
	Seed      bool                  `json:"seed"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// FromModel maps a product row to its DTO.
func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Category:  p.Category,
		Seed:      IsSeedID(p.ID),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// FromModels maps a product slice to DTOs.
func FromModels(products []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, *FromModel(&products[i]))
	}
	return dtos
}
