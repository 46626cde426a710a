// Package cache stores analysis records keyed by the hash of the dump content,
// so that re-uploading the same dump skips parsing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/threaddump-analysis/pkg/config"
	"github.com/threaddump-analysis/pkg/utils"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "threaddump:summary:"

// Cache is a JSON value cache with a per-instance TTL.
type Cache interface {
	// Get decodes the value stored under key into dest.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores value under key.
	Set(ctx context.Context, key string, value interface{}) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}

// ContentKey returns the cache key for a dump body.
func ContentKey(content []byte) string {
	return KeyPrefix + ContentHash(content)
}

// ContentHash returns the hex sha256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// New creates the cache described by cfg. It returns nil when caching is
// disabled.
func New(cfg *config.CacheConfig, logger utils.Logger) (Cache, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = &utils.NullLogger{}
	}

	switch cfg.Type {
	case "redis":
		logger.Info("Using redis cache at %s (ttl=%s)", cfg.Addr, cfg.TTL())
		return NewRedisCache(cfg.Addr, cfg.Password, cfg.DB, cfg.TTL())
	case "memory", "":
		logger.Info("Using in-memory cache (ttl=%s)", cfg.TTL())
		return NewMemoryCache(cfg.TTL()), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
