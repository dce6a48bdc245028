package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greengomarket/greengo-backend/pkg/enums"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price INTEGER NOT NULL,
  image TEXT NOT NULL,
  category TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(`DELETE FROM products`).Error)
	return db
}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(setupCatalogTestDB(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestIsSeedID(t *testing.T) {
	assert.True(t, IsSeedID("3"))
	assert.True(t, IsSeedID("16"))
	assert.False(t, IsSeedID("a1B2c3"))
	assert.False(t, IsSeedID(""))
	assert.False(t, IsSeedID("12x"))
}

func TestEnsureSeededIsRepeatable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSeeded(ctx))
	require.NoError(t, svc.EnsureSeeded(ctx))

	products, err := svc.ListProducts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, products, 11)
}

func TestEnsureSeededKeepsAdminEdits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureSeeded(ctx))

	newPrice := 95
	_, err := svc.UpdateProduct(ctx, "2", UpdateProductInput{Price: &newPrice})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureSeeded(ctx))

	product, err := svc.GetProduct(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 95, product.Price)
}

func TestListProductsByCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureSeeded(ctx))

	fruit := enums.ProductCategoryFruit
	fruits, err := svc.ListProducts(ctx, &fruit)
	require.NoError(t, err)
	assert.Len(t, fruits, 6)
	for _, p := range fruits {
		assert.Equal(t, enums.ProductCategoryFruit, p.Category)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: "", Price: 10, Category: enums.ProductCategoryFruit})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Mangoes", Price: 0, Category: enums.ProductCategoryFruit})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Mangoes", Price: 120, Category: "grain"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateProductGeneratesOpaqueID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "Ripe Mangoes",
		Price:    180,
		Image:    "https://example.test/mangoes.jpg",
		Category: enums.ProductCategoryFruit,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, IsSeedID(created.ID))
	assert.False(t, created.Seed)
}

func TestDeleteProductSeedGating(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureSeeded(ctx))

	err := svc.DeleteProduct(ctx, "3")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "Green Grapes",
		Price:    90,
		Category: enums.ProductCategoryFruit,
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, created.ID))

	_, err = svc.GetProduct(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteProductMissing(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.DeleteProduct(context.Background(), "a1B2c3")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
