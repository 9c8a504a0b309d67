package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache is a JSON-backed Redis cache for one read-model type. Keys are
// built from a fixed prefix and an id. A zero TTL stores keys without expiry.
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl}
}

func (c *ViewCache[T]) Key(id string) string { return c.prefix + id }

// Get returns (nil, false) on a miss or on a value that no longer decodes.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	data, err := c.client.Get(ctx, c.Key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			log.Printf("ViewCache: read error for key %s: %v", c.Key(id), err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("ViewCache: discarding undecodable value for key %s: %v", c.Key(id), err)
		return nil, false
	}
	return &v, true
}

// GetOrLoad serves id from Redis, or calls load and stores the result.
func (c *ViewCache[T]) GetOrLoad(ctx context.Context, id string, load func(context.Context) (*T, error)) (*T, error) {
	if v, ok := c.Get(ctx, id); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(ctx, id, v)
	return v, nil
}

// Set errors are logged, not returned: a failed cache write never fails the
// caller.
func (c *ViewCache[T]) Set(ctx context.Context, id string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("ViewCache: marshal error for key %s: %v", c.Key(id), err)
		return
	}
	if err := c.client.Set(ctx, c.Key(id), data, c.ttl).Err(); err != nil {
		log.Printf("ViewCache: write error for key %s: %v", c.Key(id), err)
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.Key(id)).Err(); err != nil {
		log.Printf("ViewCache: delete error for key %s: %v", c.Key(id), err)
	}
}

// Counter is a set of Redis integer counters sharing a key prefix.
type Counter struct {
	client *goredis.Client
	prefix string
}

func NewCounter(client *goredis.Client, prefix string) *Counter {
	return &Counter{client: client, prefix: prefix}
}

func (c *Counter) Incr(ctx context.Context, id string) {
	if err := c.client.Incr(ctx, c.prefix+id).Err(); err != nil {
		log.Printf("Counter: incr error for key %s: %v", c.prefix+id, err)
	}
}

// Decr never takes a counter below zero.
func (c *Counter) Decr(ctx context.Context, id string) {
	n, err := c.client.Decr(ctx, c.prefix+id).Result()
	if err != nil {
		log.Printf("Counter: decr error for key %s: %v", c.prefix+id, err)
		return
	}
	if n < 0 {
		c.client.Set(ctx, c.prefix+id, 0, 0)
	}
}

func (c *Counter) Get(ctx context.Context, id string) int64 {
	n, err := c.client.Get(ctx, c.prefix+id).Int64()
	if err != nil {
		return 0
	}
	return n
}

// Marker records ids that have been handled, so at-least-once deliveries can
// be applied exactly once. Marks expire after ttl.
type Marker struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewMarker(client *goredis.Client, prefix string, ttl time.Duration) *Marker {
	return &Marker{client: client, prefix: prefix, ttl: ttl}
}

// Mark reports true the first time id is marked and false afterwards.
func (m *Marker) Mark(ctx context.Context, id string) (bool, error) {
	first, err := m.client.SetNX(ctx, m.prefix+id, 1, m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s: %w", m.prefix+id, err)
	}
	return first, nil
}
