package cache

import (
	"context"
	"time"
)

// Scoped wraps a Cache with a key prefix so different fetchers (registry
// metadata, VCS lookups) can share one backend without key collisions.
type Scoped struct {
	inner  Cache
	prefix string
}

// NewScoped returns a view of inner with every key prefixed.
func NewScoped(inner Cache, prefix string) *Scoped {
	return &Scoped{inner: inner, prefix: prefix}
}

func (c *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.inner.Get(ctx, c.prefix+key)
}

func (c *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, c.prefix+key, data, ttl)
}

func (c *Scoped) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, c.prefix+key)
}

// Close is a no-op; the underlying cache owns its resources.
func (c *Scoped) Close() error { return nil }

var _ Cache = (*Scoped)(nil)
