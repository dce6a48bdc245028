package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greengomarket/greengo-backend/pkg/db/models"
	redisclient "github.com/greengomarket/greengo-backend/pkg/redis"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  owner_id TEXT PRIMARY KEY,
  items TEXT NOT NULL DEFAULT '[]',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(`DELETE FROM carts`).Error)
	return db
}

func TestRemoteStoreRoundTrip(t *testing.T) {
	store := NewRemoteStore(setupCartTestDB(t))
	ctx := context.Background()

	// Missing row reads as empty.
	lines, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, lines, 0)

	want := models.CartLines{
		{ProductID: "2", Name: "Organic Carrots", Price: 80, Quantity: 2},
	}
	require.NoError(t, store.Save(ctx, "user-1", want))

	got, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Whole-document rewrite: the second save fully replaces the first.
	replacement := models.CartLines{
		{ProductID: "9", Name: "Fresh Apples", Price: 150, Quantity: 1},
	}
	require.NoError(t, store.Save(ctx, "user-1", replacement))
	got, err = store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, replacement, got)

	require.NoError(t, store.Clear(ctx, "user-1"))
	got, err = store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, got, 0)
}

type mapKV struct {
	data map[string]string
}

func newMapKV() *mapKV {
	return &mapKV{data: make(map[string]string)}
}

func (m *mapKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redisclient.Nil
	}
	return v, nil
}

func (m *mapKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (m *mapKV) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mapKV) GuestCartKey(guestToken string) string {
	return "gg:guest_cart:" + guestToken
}

func TestGuestStoreRoundTrip(t *testing.T) {
	kv := newMapKV()
	store := NewGuestStore(kv, time.Hour)
	ctx := context.Background()

	lines, err := store.Load(ctx, "tok-1")
	require.NoError(t, err)
	assert.Len(t, lines, 0)

	want := models.CartLines{
		{ProductID: "3", Name: "Crisp Lettuce", Price: 50, Quantity: 1},
	}
	require.NoError(t, store.Save(ctx, "tok-1", want))

	got, err := store.Load(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx, "tok-1"))
	_, exists := kv.data[kv.GuestCartKey("tok-1")]
	assert.False(t, exists)
}

func TestGuestStoreCorruptPayload(t *testing.T) {
	kv := newMapKV()
	kv.data[kv.GuestCartKey("tok-1")] = "{not json"
	store := NewGuestStore(kv, time.Hour)

	_, err := store.Load(context.Background(), "tok-1")
	require.Error(t, err)
}
