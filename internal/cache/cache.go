package cache

import (
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/singleflight"
)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// TTL caches values fetched from a slow source, typically a call across the
// native bridge. A stale entry is still returned while a single background
// fetch refreshes it; concurrent misses on one key share a fetch.
type TTL[T any] struct {
	entries *xsync.Map[string, entry[T]]
	group   singleflight.Group
	ttl     time.Duration
	now     func() time.Time
}

func NewTTL[T any](ttl time.Duration) *TTL[T] {
	return &TTL[T]{
		entries: xsync.NewMap[string, entry[T]](),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *TTL[T]) Get(key string, fetch func() (T, error)) (T, error) {
	e, ok := c.entries.Load(key)
	if ok {
		if c.now().Sub(e.fetchedAt) > c.ttl {
			go func() {
				c.group.Do(key, func() (any, error) {
					result, err := fetch()
					if err == nil {
						c.entries.Store(key, entry[T]{value: result, fetchedAt: c.now()})
					}
					return nil, nil
				})
			}()
		}
		return e.value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if e, ok := c.entries.Load(key); ok {
			return e, nil
		}
		res, err := fetch()
		if err != nil {
			return nil, err
		}
		fresh := entry[T]{value: res, fetchedAt: c.now()}
		c.entries.Store(key, fresh)
		return fresh, nil
	})

	if err != nil {
		var zero T
		return zero, err
	}
	return v.(entry[T]).value, nil
}

func (c *TTL[T]) Forget(key string) {
	c.entries.Delete(key)
}

func (c *TTL[T]) Len() int {
	return c.entries.Size()
}
