package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/greengomarket/greengo-backend/internal/identity"
	"github.com/greengomarket/greengo-backend/pkg/cartstream"
	"github.com/greengomarket/greengo-backend/pkg/config"
	"github.com/greengomarket/greengo-backend/pkg/db/models"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
	"github.com/greengomarket/greengo-backend/pkg/logger"
	"github.com/greengomarket/greengo-backend/pkg/metrics"
)

// MergeOutcome labels the result of a merge attempt.
type MergeOutcome string

const (
	MergeOutcomeMerged  MergeOutcome = "merged"
	MergeOutcomeEmpty   MergeOutcome = "empty"
	MergeOutcomeSkipped MergeOutcome = "skipped"
)

// mergeGuardTTL bounds how long a consumed merge guard key lingers. The
// guard is keyed by the session access id, so it only needs to outlive the
// session it protects.
const mergeGuardTTL = 31 * 24 * time.Hour

// Service presents a single cart abstraction regardless of identity state
// and reconciles guest and remote carts exactly once per login transition.
type Service interface {
	GetCart(ctx context.Context, id identity.Identity) (models.CartLines, error)
	AddItem(ctx context.Context, id identity.Identity, productID string) (models.CartLines, error)
	RemoveItem(ctx context.Context, id identity.Identity, productID string) (models.CartLines, error)
	UpdateQuantity(ctx context.Context, id identity.Identity, productID string, quantity int) (models.CartLines, error)
	Clear(ctx context.Context, id identity.Identity) error
	MergeGuestCart(ctx context.Context, userID, guestToken, accessID string) (MergeOutcome, error)
}

type productLoader interface {
	GetProduct(ctx context.Context, id string) (*ProductSnapshot, error)
}

// ProductSnapshot is the minimal catalog view the engine denormalizes into
// cart lines at add time.
type ProductSnapshot struct {
	ID       string
	Name     string
	Price    int
	Image    string
	Category string
}

type mergeGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	MergeGuardKey(accessID string) string
}

type snapshotPublisher interface {
	Publish(ctx context.Context, snap cartstream.Snapshot)
}

type engine struct {
	remote    Store
	guest     Store
	products  productLoader
	guard     mergeGuard
	publisher snapshotPublisher
	metrics   *metrics.StorefrontMetrics
	logg      *logger.Logger
	cache     *fallbackCache
	cfg       config.CartConfig
}

// NewEngine constructs the cart reconciliation engine.
func NewEngine(
	remote Store,
	guest Store,
	products productLoader,
	guard mergeGuard,
	publisher snapshotPublisher,
	m *metrics.StorefrontMetrics,
	logg *logger.Logger,
	cfg config.CartConfig,
) (Service, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote cart store required")
	}
	if guest == nil {
		return nil, fmt.Errorf("guest cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if guard == nil {
		return nil, fmt.Errorf("merge guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &engine{
		remote:    remote,
		guest:     guest,
		products:  products,
		guard:     guard,
		publisher: publisher,
		metrics:   m,
		logg:      logg,
		cache:     newFallbackCache(),
		cfg:       cfg,
	}, nil
}

func (e *engine) storeFor(id identity.Identity) Store {
	if id.IsGuest() {
		return e.guest
	}
	return e.remote
}

// GetCart reads the owner's cart. Store read failures never propagate:
// the last cached line set (or an empty cart) is returned instead.
func (e *engine) GetCart(ctx context.Context, id identity.Identity) (models.CartLines, error) {
	if id.IsZero() {
		return models.CartLines{}, nil
	}
	key := id.OwnerKey()

	lines, err := e.storeFor(id).Load(ctx, key)
	if err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "cart read failed, serving fallback")
		if cached, ok := e.cache.get(key); ok {
			return cached, nil
		}
		return models.CartLines{}, nil
	}

	e.cache.put(key, lines)
	return lines, nil
}

// AddItem increments the line quantity if the product is already carted,
// else inserts a new line at quantity 1, denormalizing catalog fields at
// insertion time.
func (e *engine) AddItem(ctx context.Context, id identity.Identity, productID string) (models.CartLines, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner could not be resolved")
	}

	lines, err := e.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		product, err := e.products.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, models.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Category:  categoryOf(product.Category),
			Quantity:  1,
		})
	}

	if err := e.persist(ctx, id, lines); err != nil {
		return nil, err
	}
	e.countMutation("add", id)
	return lines, nil
}

// RemoveItem deletes the line if present; absent lines are a no-op, not an
// error.
func (e *engine) RemoveItem(ctx context.Context, id identity.Identity, productID string) (models.CartLines, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner could not be resolved")
	}

	lines, err := e.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	filtered := lines[:0]
	removed := false
	for _, line := range lines {
		if line.ProductID == productID {
			removed = true
			continue
		}
		filtered = append(filtered, line)
	}
	if !removed {
		return lines, nil
	}

	if err := e.persist(ctx, id, filtered); err != nil {
		return nil, err
	}
	e.countMutation("remove", id)
	return filtered, nil
}

// UpdateQuantity clamps the new quantity at zero; a zero result deletes the
// line so no zero-quantity line ever persists.
func (e *engine) UpdateQuantity(ctx context.Context, id identity.Identity, productID string, quantity int) (models.CartLines, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner could not be resolved")
	}
	if quantity < 0 {
		quantity = 0
	}
	if quantity == 0 {
		return e.RemoveItem(ctx, id, productID)
	}

	lines, err := e.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return lines, nil
	}

	if err := e.persist(ctx, id, lines); err != nil {
		return nil, err
	}
	e.countMutation("update_quantity", id)
	return lines, nil
}

// Clear replaces the cart with an empty collection.
func (e *engine) Clear(ctx context.Context, id identity.Identity) error {
	if id.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner could not be resolved")
	}
	if err := e.persist(ctx, id, models.CartLines{}); err != nil {
		return err
	}
	e.countMutation("clear", id)
	return nil
}

// MergeGuestCart folds the guest cart into the user's remote cart: matching
// product ids sum quantities, the rest append as-is, then the guest cart is
// erased. The session-scoped guard makes the merge single-fire per login;
// a second call with the same access id is a recorded no-op.
func (e *engine) MergeGuestCart(ctx context.Context, userID, guestToken, accessID string) (MergeOutcome, error) {
	if userID == "" || accessID == "" {
		return MergeOutcomeSkipped, pkgerrors.New(pkgerrors.CodeValidation, "user id and access id are required")
	}
	if guestToken == "" {
		return MergeOutcomeSkipped, nil
	}

	guardKey := e.guard.MergeGuardKey(accessID)
	acquired, err := e.guard.SetNX(ctx, guardKey, userID, mergeGuardTTL)
	if err != nil {
		return MergeOutcomeSkipped, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring merge guard")
	}
	if !acquired {
		e.countMerge(string(MergeOutcomeSkipped))
		return MergeOutcomeSkipped, nil
	}

	outcome, err := e.mergeLocked(ctx, userID, guestToken)
	if err != nil {
		// Release the guard so the next login attempt can retry the merge.
		if delErr := e.guard.Del(ctx, guardKey); delErr != nil {
			e.logg.Warn(e.logg.WithField(ctx, "error", delErr.Error()), "releasing merge guard failed")
		}
		e.countMerge("failed")
		return MergeOutcomeSkipped, err
	}
	e.countMerge(string(outcome))
	return outcome, nil
}

func (e *engine) mergeLocked(ctx context.Context, userID, guestToken string) (MergeOutcome, error) {
	guestLines, err := e.guest.Load(ctx, guestToken)
	if err != nil {
		return MergeOutcomeSkipped, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading guest cart")
	}
	if len(guestLines) == 0 {
		if err := e.guest.Clear(ctx, guestToken); err != nil {
			e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "clearing empty guest cart failed")
		}
		return MergeOutcomeEmpty, nil
	}

	remoteLines, err := e.remote.Load(ctx, userID)
	if err != nil {
		return MergeOutcomeSkipped, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading remote cart")
	}

	merged := make(models.CartLines, len(remoteLines))
	copy(merged, remoteLines)
	for _, guestLine := range guestLines {
		found := false
		for i := range merged {
			if merged[i].ProductID == guestLine.ProductID {
				merged[i].Quantity += guestLine.Quantity
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, guestLine)
		}
	}

	// The merged write must be durable before the guest copy is erased,
	// so it does not go through the soft-failure persist path.
	if err := e.remote.Save(ctx, userID, merged); err != nil {
		return MergeOutcomeSkipped, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing merged cart")
	}

	if err := e.guest.Clear(ctx, guestToken); err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "erasing guest cart after merge failed")
	}

	e.cache.put(userID, merged)
	e.cache.drop(guestToken)
	e.publish(ctx, userID, merged)
	return MergeOutcomeMerged, nil
}

// persist writes the whole line set. Guest writes propagate failures;
// authenticated writes retry against the remote store and, when every
// attempt fails, absorb the error while the cached view optimistically
// reflects the intended state. Durability is not guaranteed on remote-write
// failure.
func (e *engine) persist(ctx context.Context, id identity.Identity, lines models.CartLines) error {
	key := id.OwnerKey()

	if id.IsGuest() {
		if err := e.guest.Save(ctx, key, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing guest cart")
		}
		e.cache.put(key, lines)
		e.publish(ctx, key, lines)
		return nil
	}

	backoff := retry.WithMaxRetries(uint64(e.cfg.RemoteWriteRetries), retry.NewConstant(e.remoteBackoff()))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if saveErr := e.remote.Save(ctx, key, lines); saveErr != nil {
			return retry.RetryableError(saveErr)
		}
		return nil
	})
	if err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "remote cart write failed, keeping optimistic view")
		if e.metrics != nil {
			e.metrics.IncRemoteWriteFailure()
		}
	}

	e.cache.put(key, lines)
	e.publish(ctx, key, lines)
	return nil
}

func (e *engine) remoteBackoff() time.Duration {
	if e.cfg.RemoteWriteBackoff > 0 {
		return e.cfg.RemoteWriteBackoff
	}
	return 100 * time.Millisecond
}

func (e *engine) publish(ctx context.Context, ownerKey string, lines models.CartLines) {
	if e.publisher == nil {
		return
	}
	e.publisher.Publish(ctx, cartstream.SnapshotFor(ownerKey, lines, time.Now().UTC()))
}

func (e *engine) countMutation(op string, id identity.Identity) {
	if e.metrics != nil {
		e.metrics.IncCartMutation(op, id.OwnerKind())
	}
}

func (e *engine) countMerge(outcome string) {
	if e.metrics != nil {
		e.metrics.IncCartMerge(outcome)
	}
}
