package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mosefak/medchat/internal/config"
	"github.com/mosefak/medchat/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Service memoizes query results per (query, params, identity) for a
// bounded TTL. Best-effort only: stale-within-TTL reads are accepted.
type Service interface {
	Get(ctx context.Context, query string, params map[string]string, identity models.Identity) ([][]any, bool)
	Set(ctx context.Context, query string, params map[string]string, identity models.Identity, rows [][]any) error
	Clear(ctx context.Context) error
}

// Entry is one cached query result.
type Entry struct {
	Rows      [][]any
	CreatedAt time.Time
}

// Cache implements the result cache on a TTL map.
type Cache struct {
	enabled bool
	cache   *cache.Cache
	logger  *logrus.Logger
	maxSize int
}

// NewCache creates a new result cache
func NewCache(cfg *config.Config, logger *logrus.Logger) Service {
	if !cfg.Cache.Enabled {
		return &Cache{enabled: false}
	}

	return &Cache{
		enabled: true,
		cache:   cache.New(cfg.Cache.TTL, cfg.Cache.TTL*2),
		logger:  logger,
		maxSize: cfg.Cache.MaxSize,
	}
}

// Get retrieves a cached result. Expired entries are never returned;
// go-cache treats them as absent and the janitor evicts them.
func (c *Cache) Get(ctx context.Context, query string, params map[string]string, identity models.Identity) ([][]any, bool) {
	if !c.enabled {
		return nil, false
	}

	key := Key(query, params, identity)
	if val, found := c.cache.Get(key); found {
		entry := val.(*Entry)
		c.logger.WithFields(logrus.Fields{
			"key": key,
			"age": time.Since(entry.CreatedAt),
		}).Debug("Query cache hit")
		return entry.Rows, true
	}

	return nil, false
}

// Set stores a query result with the current timestamp. When the entry
// count exceeds the size bound, all expired entries are swept; a pure
// TTL sweep, not an LRU eviction.
func (c *Cache) Set(ctx context.Context, query string, params map[string]string, identity models.Identity, rows [][]any) error {
	if !c.enabled {
		return nil
	}

	if c.cache.ItemCount() >= c.maxSize {
		c.logger.Warn("Query cache size limit reached, sweeping expired entries")
		c.cache.DeleteExpired()
	}

	key := Key(query, params, identity)
	c.cache.SetDefault(key, &Entry{
		Rows:      rows,
		CreatedAt: time.Now(),
	})

	c.logger.WithField("key", key).Debug("Query result cached")
	return nil
}

// Clear removes all cached entries
func (c *Cache) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	c.cache.Flush()
	c.logger.Info("Query cache cleared")
	return nil
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Key derives the cache key: a sha256 over the whitespace-normalized
// query text, the sorted parameter pairs, and the identity fields. Two
// identities never share an entry.
func Key(query string, params map[string]string, identity models.Identity) string {
	normalized := whitespaceRE.ReplaceAllString(strings.TrimSpace(query), " ")

	parts := []string{normalized}
	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
		}
	}
	if identity.UserID != "" {
		parts = append(parts, identity.UserID)
	}
	if identity.Role != "" {
		parts = append(parts, identity.Role.String())
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(hash[:])
}
