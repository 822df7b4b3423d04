package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Loader wraps a Cache so that concurrent misses for the same key share a
// single call to the load function.
type Loader[T any] struct {
	cache Cache[T]
	group singleflight.Group
}

// NewLoader returns a Loader backed by cache.
func NewLoader[T any](cache Cache[T]) *Loader[T] {
	return &Loader[T]{cache: cache}
}

// GetOrLoad returns the cached value for key, calling load on a miss. Load
// errors are returned to every waiter and nothing is cached.
func (l *Loader[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}

	res, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		l.cache.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Invalidate drops every cached value.
func (l *Loader[T]) Invalidate() {
	l.cache.Purge()
}
