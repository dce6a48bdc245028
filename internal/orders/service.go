package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/greengomarket/greengo-backend/internal/cart"
	"github.com/greengomarket/greengo-backend/internal/identity"
	"github.com/greengomarket/greengo-backend/pkg/db/models"
	"github.com/greengomarket/greengo-backend/pkg/enums"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
	"github.com/greengomarket/greengo-backend/pkg/metrics"
	"github.com/greengomarket/greengo-backend/pkg/pagination"
)

// Service exposes order lifecycle operations.
type Service interface {
	PlaceOrder(ctx context.Context, id identity.Identity, input PlaceOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID string) (*OrderDTO, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]OrderDTO, error)
	ListAllOrders(ctx context.Context, params pagination.Params) (*OrderListResult, error)
	UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo    *Repository
	carts   cart.Service
	metrics *metrics.StorefrontMetrics
	now     func() time.Time
}

// NewService constructs an orders service instance.
func NewService(repo *Repository, carts cart.Service, m *metrics.StorefrontMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &service{
		repo:    repo,
		carts:   carts,
		metrics: m,
		now:     time.Now,
	}, nil
}

// newOrderID assigns a locally generated, time-based order id. The random
// suffix keeps ids unique when two checkouts land in the same millisecond.
func newOrderID(at time.Time) string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("ORD-%d-%s", at.UnixMilli(), hex.EncodeToString(suffix))
}

// PlaceOrder snapshots the current cart lines and total into an immutable
// record, persists it, then clears the cart. No inventory decrement, no
// payment capture; this is purely a record of intent.
func (s *service) PlaceOrder(ctx context.Context, id identity.Identity, input PlaceOrderInput) (*OrderDTO, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner could not be resolved")
	}
	if err := validateCheckout(input); err != nil {
		return nil, err
	}

	lines, err := s.carts.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot place an order with an empty cart")
	}

	snapshot := make(models.CartLines, len(lines))
	copy(snapshot, lines)

	var userID *string
	if !id.IsGuest() {
		uid := id.UserID
		userID = &uid
	}

	order := &models.Order{
		ID:        newOrderID(s.now()),
		UserID:    userID,
		UserEmail: strings.ToLower(strings.TrimSpace(input.Email)),
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
		Address:   strings.TrimSpace(input.Address),
		Delivery:  input.Delivery,
		Items:     snapshot,
		Total:     snapshot.Total(),
		Status:    enums.OrderStatusPending,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting order")
	}

	if s.metrics != nil {
		s.metrics.IncOrderPlaced(id.OwnerKind())
	}

	// Cart clearing is best-effort: the order record is already durable.
	_ = s.carts.Clear(ctx, id)

	return FromModel(created), nil
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return FromModel(order), nil
}

func (s *service) ListOrdersByEmail(ctx context.Context, email string) ([]OrderDTO, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	orders, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return FromModels(orders), nil
}

func (s *service) ListAllOrders(ctx context.Context, params pagination.Params) (*OrderListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	orders, err := s.repo.ListPage(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}

	result := &OrderListResult{}
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	result.Orders = FromModels(orders)
	return result, nil
}

// UpdateStatus performs a single-step transition. The pending/delivered
// pair is a flat set here: nothing rejects delivered back to pending.
func (s *service) UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", status))
	}

	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
	}
	return s.GetOrder(ctx, orderID)
}

func validateCheckout(input PlaceOrderInput) error {
	if strings.TrimSpace(input.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	if !input.Delivery.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported delivery method %q", input.Delivery))
	}
	return nil
}
