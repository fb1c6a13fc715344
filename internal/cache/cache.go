// Package cache stores extraction output keyed by document content so the
// same notice is not re-extracted on every run.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/claimflow/internal/model"
)

// Cache defines the interface for byte caches
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from document text and a rule-set version
func Key(text, version string) string {
	hash := sha256.Sum256([]byte(text))
	return "claimflow:" + version + ":" + hex.EncodeToString(hash[:])
}

// ContentHash is the hex sha256 of text
func ContentHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// FromConfig builds the layered memory+disk cache described by cfg.
// Returns nil when caching is disabled.
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	return NewLayered(
		NewMemory(cfg.MemoryTTL, 10*time.Minute),
		NewDisk(cfg.Dir, cfg.DiskTTL),
	)
}
