package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"

	"github.com/minhson226/qrcode-builder-v2/config"
	"github.com/minhson226/qrcode-builder-v2/model"
)

// recordCost is the approximate in-memory size charged per cached record.
const recordCost = 1024

// Cache keeps hot QRCode records in front of Redis on the resolve path.
//
// Management mutations must call Delete for the affected code so the resolve
// path never serves a stale target, password hash, or expiry.
type Cache struct {
	client *ristretto.Cache
	ttl    time.Duration
}

// New creates a cache instance with the given configuration.
func New(cfg config.CacheConfig) (*Cache, error) {
	maxCost := int64(cfg.MaxSizeMB) * 1024 * 1024

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CounterSize), // Number of keys to track frequency for admission
		MaxCost:     maxCost,                // Maximum cache size in bytes
		BufferItems: 64,                     // Number of keys per Get buffer
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("max_size_mb", cfg.MaxSizeMB).
		Int("ttl_seconds", cfg.TTLSeconds).
		Int("counter_size", cfg.CounterSize).
		Msg("Record cache initialized")

	return &Cache{
		client: client,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

// Get retrieves the record cached under the given code.
func (c *Cache) Get(code string) (model.QRCode, bool) {
	if c == nil || c.client == nil {
		return model.QRCode{}, false
	}
	value, found := c.client.Get(code)
	if !found {
		return model.QRCode{}, false
	}
	record, ok := value.(model.QRCode)
	return record, ok
}

// Set stores a record under its code with the configured TTL.
func (c *Cache) Set(code string, record model.QRCode) bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.client.SetWithTTL(code, record, recordCost, c.ttl)
}

// Delete removes a code from the cache.
func (c *Cache) Delete(code string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(code)
}

// Close cleanly shuts down the cache.
func (c *Cache) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
		log.Info().Msg("Record cache closed")
	}
}

// MetricsSnapshot is a point-in-time view of cache performance.
type MetricsSnapshot struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	KeysAdded   uint64  `json:"keys_added"`
	KeysEvicted uint64  `json:"keys_evicted"`
	HitRatio    float64 `json:"hit_ratio"`
	TTLSeconds  int     `json:"ttl_seconds"`
}

// GetMetricsSnapshot returns current cache metrics.
func (c *Cache) GetMetricsSnapshot() MetricsSnapshot {
	if c == nil || c.client == nil || c.client.Metrics == nil {
		return MetricsSnapshot{}
	}

	m := c.client.Metrics
	hits := m.Hits()
	misses := m.Misses()

	hitRatio := 0.0
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return MetricsSnapshot{
		Hits:        hits,
		Misses:      misses,
		KeysAdded:   m.KeysAdded(),
		KeysEvicted: m.KeysEvicted(),
		HitRatio:    hitRatio,
		TTLSeconds:  int(c.ttl.Seconds()),
	}
}
