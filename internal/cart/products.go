package cart

import (
	"context"
	"fmt"

	"github.com/greengomarket/greengo-backend/internal/catalog"
	"github.com/greengomarket/greengo-backend/pkg/enums"
)

// CatalogProducts adapts the catalog service to the engine's product
// snapshot surface.
type CatalogProducts struct {
	svc catalog.Service
}

// NewCatalogProducts wires the catalog service as the engine's product source.
func NewCatalogProducts(svc catalog.Service) (*CatalogProducts, error) {
	if svc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &CatalogProducts{svc: svc}, nil
}

func (c *CatalogProducts) GetProduct(ctx context.Context, id string) (*ProductSnapshot, error) {
	product, err := c.svc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProductSnapshot{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Image:    product.Image,
		Category: product.Category.String(),
	}, nil
}

func categoryOf(value string) enums.ProductCategory {
	return enums.ProductCategory(value)
}
