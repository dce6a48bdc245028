package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greengomarket/greengo-backend/pkg/db/models"
	redisclient "github.com/greengomarket/greengo-backend/pkg/redis"
)

// Store is the single persistence surface the engine talks to. Both the
// remote (authenticated) and guest implementations persist the whole line
// set on every write; there are no delta writes.
type Store interface {
	Load(ctx context.Context, ownerKey string) (models.CartLines, error)
	Save(ctx context.Context, ownerKey string, lines models.CartLines) error
	Clear(ctx context.Context, ownerKey string) error
}

// RemoteStore keeps authenticated carts in the relational document table.
type RemoteStore struct {
	db *gorm.DB
}

// NewRemoteStore builds the authenticated cart store.
func NewRemoteStore(db *gorm.DB) *RemoteStore {
	return &RemoteStore{db: db}
}

// Load returns the owner's lines. A missing row is an empty cart, not an error.
func (s *RemoteStore) Load(ctx context.Context, ownerKey string) (models.CartLines, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).First(&cart, "owner_id = ?", ownerKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CartLines{}, nil
		}
		return nil, err
	}
	if cart.Items == nil {
		return models.CartLines{}, nil
	}
	return cart.Items, nil
}

// Save rewrites the owner's whole cart document.
func (s *RemoteStore) Save(ctx context.Context, ownerKey string, lines models.CartLines) error {
	if lines == nil {
		lines = models.CartLines{}
	}
	cart := models.Cart{OwnerID: ownerKey, Items: lines}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).
		Create(&cart).Error
}

// Clear replaces the cart with an empty line set.
func (s *RemoteStore) Clear(ctx context.Context, ownerKey string) error {
	return s.Save(ctx, ownerKey, models.CartLines{})
}

type guestKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(guestToken string) string
}

// GuestStore keeps unauthenticated carts in Redis, keyed by the device's
// guest token. Untouched carts expire with the configured TTL.
type GuestStore struct {
	kv  guestKV
	ttl time.Duration
}

// NewGuestStore builds the guest cart store.
func NewGuestStore(kv guestKV, ttl time.Duration) *GuestStore {
	return &GuestStore{kv: kv, ttl: ttl}
}

// Load returns the guest's lines. A missing key is an empty cart.
func (s *GuestStore) Load(ctx context.Context, ownerKey string) (models.CartLines, error) {
	raw, err := s.kv.Get(ctx, s.kv.GuestCartKey(ownerKey))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return models.CartLines{}, nil
		}
		return nil, err
	}
	var lines models.CartLines
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode guest cart: %w", err)
	}
	return lines, nil
}

// Save rewrites the guest cart and refreshes its TTL.
func (s *GuestStore) Save(ctx context.Context, ownerKey string, lines models.CartLines) error {
	if lines == nil {
		lines = models.CartLines{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	return s.kv.Set(ctx, s.kv.GuestCartKey(ownerKey), payload, s.ttl)
}

// Clear deletes the guest cart key outright.
func (s *GuestStore) Clear(ctx context.Context, ownerKey string) error {
	return s.kv.Del(ctx, s.kv.GuestCartKey(ownerKey))
}
