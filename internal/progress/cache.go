package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/healthtracker/internal/session"
	"github.com/2beens/healthtracker/internal/telemetry/metrics"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	megabyte = 1024 * 1024

	DefaultCacheSize   = 32 * megabyte
	DefaultCacheExpiry = time.Hour
)

// Cache keeps built series per user. An entry is valid only for the day it
// was built on, and is dropped whenever the user's sessions change.
type Cache struct {
	cache          *freecache.Cache
	expireSeconds  int
	metricsManager *metrics.Manager

	// generations counts invalidations per user. A series built before an
	// invalidation must not be stored after it.
	mu          sync.Mutex
	generations map[int64]uint64
}

func NewCache(sizeBytes int, expiry time.Duration, metricsManager *metrics.Manager) *Cache {
	return &Cache{
		cache:          freecache.NewCache(sizeBytes),
		expireSeconds:  int(expiry.Seconds()),
		metricsManager: metricsManager,
		generations:    map[int64]uint64{},
	}
}

func cacheKey(userID int64) []byte {
	return []byte(fmt.Sprintf("progress::%d", userID))
}

func (c *Cache) Get(userID int64, today time.Time) (*Series, bool) {
	seriesBytes, err := c.cache.Get(cacheKey(userID))
	if err != nil {
		return nil, false
	}

	series := &Series{}
	if err := json.Unmarshal(seriesBytes, series); err != nil {
		log.Errorf("unmarshal cached progress for user [%d]: %s", userID, err)
		return nil, false
	}
	if series.Today != session.FormatDay(today) {
		return nil, false
	}

	if c.metricsManager != nil {
		c.metricsManager.CounterProgressCacheHits.Inc()
	}
	return series, true
}

// Generation returns the invalidation count of the user. Read it before
// loading the records a series is built from.
func (c *Cache) Generation(userID int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID]
}

// Set stores the series unless the user was invalidated since generation was read.
func (c *Cache) Set(userID int64, generation uint64, series *Series) bool {
	seriesBytes, err := json.Marshal(series)
	if err != nil {
		log.Errorf("marshal progress for user [%d]: %s", userID, err)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[userID] != generation {
		log.Tracef("progress for user [%d] changed while building, not cached", userID)
		return false
	}
	if err := c.cache.Set(cacheKey(userID), seriesBytes, c.expireSeconds); err != nil {
		log.Errorf("failed to write progress cache for user [%d]: %s", userID, err)
		return false
	}
	return true
}

func (c *Cache) Invalidate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[userID]++
	c.cache.Del(cacheKey(userID))
}

// SessionChanged drops the cached series of the user whose sessions changed.
func (c *Cache) SessionChanged(_ context.Context, profile session.Profile) {
	c.Invalidate(profile.UserID)
}
