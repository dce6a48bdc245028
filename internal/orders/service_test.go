package orders

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greengomarket/greengo-backend/internal/cart"
	"github.com/greengomarket/greengo-backend/internal/identity"
	"github.com/greengomarket/greengo-backend/pkg/db/models"
	"github.com/greengomarket/greengo-backend/pkg/enums"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
	"github.com/greengomarket/greengo-backend/pkg/metrics"
	"github.com/greengomarket/greengo-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  user_email TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  address TEXT NOT NULL,
  delivery TEXT NOT NULL,
  items TEXT NOT NULL DEFAULT '[]',
  total INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(`DELETE FROM orders`).Error)
	return db
}

type stubCartService struct {
	lines    map[string]models.CartLines
	cleared  []string
	clearErr error
}

func newStubCartService() *stubCartService {
	return &stubCartService{lines: make(map[string]models.CartLines)}
}

func (s *stubCartService) GetCart(ctx context.Context, id identity.Identity) (models.CartLines, error) {
	return s.lines[id.OwnerKey()], nil
}

func (s *stubCartService) AddItem(ctx context.Context, id identity.Identity, productID string) (models.CartLines, error) {
	return nil, nil
}

func (s *stubCartService) RemoveItem(ctx context.Context, id identity.Identity, productID string) (models.CartLines, error) {
	return nil, nil
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, id identity.Identity, productID string, quantity int) (models.CartLines, error) {
	return nil, nil
}

func (s *stubCartService) Clear(ctx context.Context, id identity.Identity) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.cleared = append(s.cleared, id.OwnerKey())
	delete(s.lines, id.OwnerKey())
	return nil
}

func (s *stubCartService) MergeGuestCart(ctx context.Context, userID, guestToken, accessID string) (cart.MergeOutcome, error) {
	return cart.MergeOutcomeSkipped, nil
}

func newTestService(t *testing.T) (Service, *stubCartService, *Repository) {
	t.Helper()
	repo := NewRepository(setupOrdersTestDB(t))
	carts := newStubCartService()
	svc, err := NewService(repo, carts, nil)
	require.NoError(t, err)
	return svc, carts, repo
}

func checkoutInput() PlaceOrderInput {
	return PlaceOrderInput{
		Email:    "shopper@greengo.test",
		Name:     "A Shopper",
		Phone:    "9876543210",
		Address:  "12 Market Lane",
		Delivery: enums.DeliveryMethodCashOnDelivery,
	}
}

func TestPlaceOrderSnapshotsCartAndTotal(t *testing.T) {
	svc, carts, _ := newTestService(t)
	ctx := context.Background()
	id := identity.ForUser("user-1")

	carts.lines["user-1"] = models.CartLines{
		{ProductID: "1", Name: "Tomatoes", Price: 80, Quantity: 2},
		{ProductID: "2", Name: "Organic Carrots", Price: 50, Quantity: 1},
	}

	order, err := svc.PlaceOrder(ctx, id, checkoutInput())
	require.NoError(t, err)

	assert.Equal(t, 210, order.Total)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, strings.HasPrefix(order.ID, "ORD-"), "order id %q", order.ID)

	// Cart cleared after the order is durable.
	assert.Contains(t, carts.cleared, "user-1")

	// The stored snapshot is immutable: re-reading yields the add-time price
	// regardless of later catalog changes.
	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, stored.Items[0].Price)
}

func TestPlaceOrderEmptyCartRejected(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.PlaceOrder(context.Background(), identity.ForUser("user-1"), checkoutInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestPlaceOrderValidatesDetails(t *testing.T) {
	svc, carts, _ := newTestService(t)
	carts.lines["user-1"] = models.CartLines{{ProductID: "1", Price: 80, Quantity: 1}}
	id := identity.ForUser("user-1")
	ctx := context.Background()

	bad := checkoutInput()
	bad.Phone = " "
	_, err := svc.PlaceOrder(ctx, id, bad)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	bad = checkoutInput()
	bad.Delivery = "Drone Drop"
	_, err = svc.PlaceOrder(ctx, id, bad)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestPlaceOrderGuestIdentity(t *testing.T) {
	svc, carts, _ := newTestService(t)
	carts.lines["guest-tok"] = models.CartLines{{ProductID: "1", Price: 40, Quantity: 1}}

	order, err := svc.PlaceOrder(context.Background(), identity.ForGuest("guest-tok"), checkoutInput())
	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	assert.Equal(t, "shopper@greengo.test", order.UserEmail)
}

func TestPlaceOrderIDsUniqueWithinSameMillisecond(t *testing.T) {
	svc, carts, _ := newTestService(t)
	ctx := context.Background()

	// Two checkouts in the same millisecond must not collide on the id.
	impl := svc.(*service)
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return at }

	carts.lines["user-1"] = models.CartLines{{ProductID: "1", Price: 80, Quantity: 1}}
	first, err := svc.PlaceOrder(ctx, identity.ForUser("user-1"), checkoutInput())
	require.NoError(t, err)

	carts.lines["user-2"] = models.CartLines{{ProductID: "2", Price: 50, Quantity: 1}}
	second, err := svc.PlaceOrder(ctx, identity.ForUser("user-2"), checkoutInput())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestPlaceOrderCountsOrderWhenClearFails(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	carts := newStubCartService()
	carts.clearErr = errors.New("cart store unavailable")

	reg := prometheus.NewRegistry()
	svc, err := NewService(repo, carts, metrics.NewStorefrontMetrics(reg))
	require.NoError(t, err)

	carts.lines["user-1"] = models.CartLines{{ProductID: "1", Price: 80, Quantity: 1}}
	order, err := svc.PlaceOrder(context.Background(), identity.ForUser("user-1"), checkoutInput())
	require.NoError(t, err)
	require.NotNil(t, order)

	// The order is durable, so it counts even though the clear failed.
	assert.Equal(t, 1.0, counterValue(t, reg, "orders_placed_total", "owner", "user"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestUpdateStatusFlatTransitions(t *testing.T) {
	svc, carts, _ := newTestService(t)
	ctx := context.Background()
	carts.lines["user-1"] = models.CartLines{{ProductID: "1", Price: 80, Quantity: 1}}

	order, err := svc.PlaceOrder(ctx, identity.ForUser("user-1"), checkoutInput())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, updated.Status)

	// Nothing rejects the backward transition.
	updated, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, updated.Status)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), "ORD-404", enums.OrderStatusDelivered)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateStatusInvalidValue(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), "ORD-1", "shipped")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListOrdersByEmail(t *testing.T) {
	svc, carts, _ := newTestService(t)
	ctx := context.Background()

	impl := svc.(*service)
	base := time.Now()
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Millisecond)
		impl.now = func() time.Time { return at }
		carts.lines["user-1"] = models.CartLines{{ProductID: "1", Price: 80, Quantity: 1}}
		_, err := svc.PlaceOrder(ctx, identity.ForUser("user-1"), checkoutInput())
		require.NoError(t, err)
	}

	orders, err := svc.ListOrdersByEmail(ctx, "Shopper@greengo.test")
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestListAllOrdersPaginates(t *testing.T) {
	svc, carts, _ := newTestService(t)
	ctx := context.Background()

	impl := svc.(*service)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		impl.now = func() time.Time { return at }
		carts.lines["user-1"] = models.CartLines{{ProductID: "1", Price: 80, Quantity: 1}}
		_, err := svc.PlaceOrder(ctx, identity.ForUser("user-1"), checkoutInput())
		require.NoError(t, err)
	}

	page, err := svc.ListAllOrders(ctx, pagination.Params{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 3)
	require.NotNil(t, page.NextCursor)

	rest, err := svc.ListAllOrders(ctx, pagination.Params{Limit: 3, Cursor: *page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Orders, 2)
	assert.Nil(t, rest.NextCursor)

	seen := map[string]bool{}
	for _, o := range append(page.Orders, rest.Orders...) {
		assert.False(t, seen[o.ID], "order %s repeated across pages", o.ID)
		seen[o.ID] = true
	}
}
