package cache

import (
	"context"
	"time"

	"github.com/matzehuels/antpack/pkg/observability"
)

// Observed reports every Get and Set of an inner cache to the registered
// cache hooks, labelled by key type.
type Observed struct {
	Cache
}

// NewObserved wraps c.
func NewObserved(c Cache) Cache {
	return Observed{Cache: c}
}

// Get implements Cache.
func (o Observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := o.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

// Set implements Cache.
func (o Observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := o.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}
