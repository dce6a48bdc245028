package cart

import (
	"sync"

	"github.com/greengomarket/greengo-backend/pkg/db/models"
)

// fallbackCache holds the last line set observed per owner. It backs reads
// when the remote store is unreachable and carries the optimistic view after
// an absorbed remote write failure. Never authoritative.
type fallbackCache struct {
	mu    sync.RWMutex
	lines map[string]models.CartLines
}

func newFallbackCache() *fallbackCache {
	return &fallbackCache{lines: make(map[string]models.CartLines)}
}

func (c *fallbackCache) get(ownerKey string) (models.CartLines, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lines, ok := c.lines[ownerKey]
	if !ok {
		return nil, false
	}
	copied := make(models.CartLines, len(lines))
	copy(copied, lines)
	return copied, true
}

func (c *fallbackCache) put(ownerKey string, lines models.CartLines) {
	copied := make(models.CartLines, len(lines))
	copy(copied, lines)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[ownerKey] = copied
}

func (c *fallbackCache) drop(ownerKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, ownerKey)
}
