package projection

import (
	"sync"
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
)

type entry struct {
	projection  *models.Projection
	generatedAt time.Time
}

// Cache is the single-slot per (coin, horizon) projection cache.
type Cache struct {
	mutex    *sync.RWMutex
	internal map[string]*entry
}

func NewCache() *Cache {
	return &Cache{
		mutex:    &sync.RWMutex{},
		internal: make(map[string]*entry),
	}
}

func key(coin, horizon string) string {
	return coin + ":" + horizon
}

// Get returns the cached projection when its age is below the horizon TTL.
func (c *Cache) Get(coin, horizon string, now time.Time) *models.Projection {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, ok := c.internal[key(coin, horizon)]
	if !ok {
		return nil
	}

	ttl, ok := constants.ProjectionTTL[horizon]
	if !ok {
		return nil
	}

	if now.Sub(e.generatedAt) >= ttl {
		return nil
	}

	return e.projection
}

// Set stores a projection. Callers only cache ACTIVE results.
func (c *Cache) Set(coin, horizon string, projection *models.Projection, now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.internal[key(coin, horizon)] = &entry{projection: projection, generatedAt: now}
}
