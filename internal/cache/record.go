package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/claimflow/internal/model"
)

// RecordCache caches extracted claim records by document text.
// Entries are scoped to a rule-set version; a new version never sees old entries.
type RecordCache struct {
	backend Cache
	version string
	ttl     time.Duration
}

// NewRecordCache wraps backend. A nil backend yields a cache that always misses.
func NewRecordCache(backend Cache, version string, ttl time.Duration) *RecordCache {
	return &RecordCache{
		backend: backend,
		version: version,
		ttl:     ttl,
	}
}

// Load returns the cached record for text. Corrupt entries are dropped and reported as misses.
func (c *RecordCache) Load(text string) (model.ClaimRecord, bool) {
	if c == nil || c.backend == nil {
		return model.ClaimRecord{}, false
	}

	key := Key(text, c.version)
	data, found := c.backend.Get(key)
	if !found {
		return model.ClaimRecord{}, false
	}

	var rec model.ClaimRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		_ = c.backend.Delete(key)
		return model.ClaimRecord{}, false
	}
	return rec, true
}

// Save stores rec for text
func (c *RecordCache) Save(text string, rec model.ClaimRecord) error {
	if c == nil || c.backend == nil {
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := c.backend.Set(Key(text, c.version), data, c.ttl); err != nil {
		return fmt.Errorf("cache record: %w", err)
	}
	return nil
}

// Version returns the rule-set version entries are scoped to
func (c *RecordCache) Version() string {
	return c.version
}
