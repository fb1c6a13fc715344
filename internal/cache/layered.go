package cache

import (
	"errors"
	"time"
)

// Layered checks a fast cache before a slow one and promotes slow hits
type Layered struct {
	memory Cache
	disk   Cache
}

// NewLayered stacks memory over disk
func NewLayered(memory, disk Cache) *Layered {
	return &Layered{
		memory: memory,
		disk:   disk,
	}
}

func (c *Layered) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set writes both layers. The memory layer keeps its own default TTL.
func (c *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, 0); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

func (c *Layered) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

func (c *Layered) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}
