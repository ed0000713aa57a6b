package refdata

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
	"tailscale.com/util/lru"
)

// DefaultObserverCacheSize is the number of observers an ObserverCache
// keeps when no size is given.
const DefaultObserverCacheSize = 64

type observerKey struct {
	fieldSize float64
	age       int
}

// ObserverCache memoizes Observer results per (field size, age), keeping
// the most recently used ones. Stored values are never mutated, so callers
// may share them without locking.
type ObserverCache struct {
	tables *Tables
	group  singleflight.Group

	mu  sync.Mutex
	lru lru.Cache[observerKey, *ObserverData]
}

// NewObserverCache returns a cache over t holding up to
// DefaultObserverCacheSize observers. t must not change afterwards.
func NewObserverCache(t *Tables) *ObserverCache {
	return NewObserverCacheSize(t, DefaultObserverCacheSize)
}

// NewObserverCacheSize returns a cache over t holding up to maxEntries
// observers. Non-positive sizes select DefaultObserverCacheSize.
func NewObserverCacheSize(t *Tables, maxEntries int) *ObserverCache {
	if maxEntries <= 0 {
		maxEntries = DefaultObserverCacheSize
	}
	c := &ObserverCache{tables: t}
	c.lru.MaxEntries = maxEntries
	return c
}

// Tables returns the underlying reference tables.
func (c *ObserverCache) Tables() *Tables {
	return c.tables
}

func (c *ObserverCache) load(key observerKey) (*ObserverData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.GetOk(key)
}

// Get returns the observer for fieldSize and age, computing it on first
// request. Concurrent first requests share one computation.
func (c *ObserverCache) Get(fieldSize float64, age int) (*ObserverData, error) {
	key := observerKey{fieldSize, age}
	if d, ok := c.load(key); ok {
		return d, nil
	}
	flight := strconv.FormatFloat(fieldSize, 'g', -1, 64) + "/" + strconv.Itoa(age)
	v, err, _ := c.group.Do(flight, func() (any, error) {
		if d, ok := c.load(key); ok {
			return d, nil
		}
		d, err := c.tables.Observer(fieldSize, age)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.lru.Set(key, d)
		c.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ObserverData), nil
}

// Len reports the number of cached observers.
func (c *ObserverCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Cap reports the maximum number of cached observers.
func (c *ObserverCache) Cap() int {
	return c.lru.MaxEntries
}
