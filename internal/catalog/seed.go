package catalog

import (
	"github.com/greengomarket/greengo-backend/pkg/db/models"
	"github.com/greengomarket/greengo-backend/pkg/enums"
)

// IsSeedID reports whether a product id names a seed product. Seed products
// keep their original all-digit ids; store-added products get opaque
// generated ids. The classification is keyed off id shape alone, so a seed
// product manually given an alphanumeric id would be treated as deletable.
func IsSeedID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SeedProducts returns the catalog entries shipped with the application.
// The migration inserts the same rows; this copy backs the optional
// seed-on-start path for fresh databases.
func SeedProducts() []models.Product {
	return []models.Product{
		{ID: "2", Name: "Organic Carrots", Price: 80, Image: "https://images.unsplash.com/photo-1445282768818-728615cc910a?w=400&h=400&fit=crop", Category: enums.ProductCategoryVegetable},
		{ID: "3", Name: "Crisp Lettuce", Price: 50, Image: "https://images.unsplash.com/photo-1622206151226-18ca2c9ab4a1?w=400&h=400&fit=crop", Category: enums.ProductCategoryVegetable},
		{ID: "4", Name: "Fresh Broccoli", Price: 120, Image: "https://images.unsplash.com/photo-1584270354949-c26b0d5b4a0c?w=400&h=400&fit=crop", Category: enums.ProductCategoryVegetable},
		{ID: "5", Name: "Bell Peppers", Price: 100, Image: "https://images.unsplash.com/photo-1563565375-f3fdfdbefa83?w=400&h=400&fit=crop", Category: enums.ProductCategoryVegetable},
		{ID: "6", Name: "Fresh Spinach", Price: 40, Image: "https://images.unsplash.com/photo-1576045057995-568f588f82fb?w=400&h=400&fit=crop", Category: enums.ProductCategoryVegetable},
		{ID: "9", Name: "Fresh Apples", Price: 150, Image: "https://images.unsplash.com/photo-1560806887-1e4cd0b6cbd6?w=400&h=400&fit=crop", Category: enums.ProductCategoryFruit},
		{ID: "10", Name: "Sweet Bananas", Price: 60, Image: "https://images.unsplash.com/photo-1571771894821-ce9b6c11b08e?w=400&h=400&fit=crop", Category: enums.ProductCategoryFruit},
		{ID: "11", Name: "Juicy Oranges", Price: 100, Image: "https://images.unsplash.com/photo-1580052614034-c55d20bfee3b?w=400&h=400&fit=crop", Category: enums.ProductCategoryFruit},
		{ID: "12", Name: "Fresh Strawberries", Price: 250, Image: "https://images.unsplash.com/photo-1464965911861-746a04b4bca6?w=400&h=400&fit=crop", Category: enums.ProductCategoryFruit},
		{ID: "15", Name: "Sweet Pineapples", Price: 80, Image: "https://images.unsplash.com/photo-1589820296156-2454bb8a6ad1?w=400&h=400&fit=crop", Category: enums.ProductCategoryFruit},
		{ID: "16", Name: "Fresh Watermelons", Price: 40, Image: "https://images.unsplash.com/photo-1587049352846-4a222e784d38?w=400&h=400&fit=crop", Category: enums.ProductCategoryFruit},
	}
}
