package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// DailyCache pins one word id per day.
type DailyCache struct {
	rdb    *redis.Client
	prefix string
}

func NewDailyCache(rdb *redis.Client, prefix string) *DailyCache {
	return &DailyCache{rdb: rdb, prefix: prefix}
}

func (c *DailyCache) key(day string) string {
	return c.prefix + ":" + day
}

// Get returns the id pinned for day, if any.
func (c *DailyCache) Get(ctx context.Context, day string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(day)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %s: %w", day, err)
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis parse %s: %w", day, err)
	}
	return id, true, nil
}

// Pin stores id for day unless another id was pinned first, and returns the
// id that ends up pinned.
func (c *DailyCache) Pin(ctx context.Context, day string, id int64, ttl time.Duration) (int64, error) {
	ok, err := c.rdb.SetNX(ctx, c.key(day), id, ttl).Result()
	if err != nil {
		return 0, fmt.Errorf("redis setnx %s: %w", day, err)
	}
	if ok {
		return id, nil
	}

	pinned, found, err := c.Get(ctx, day)
	if err != nil {
		return 0, err
	}
	if !found {
		return id, nil
	}
	return pinned, nil
}

// Unpin drops the id pinned for day.
func (c *DailyCache) Unpin(ctx context.Context, day string) error {
	if err := c.rdb.Del(ctx, c.key(day)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", day, err)
	}
	return nil
}

// StateStore keeps short lived single-use values such as OAuth state.
type StateStore struct {
	rdb    *redis.Client
	prefix string
}

func NewStateStore(rdb *redis.Client, prefix string) *StateStore {
	return &StateStore{rdb: rdb, prefix: prefix}
}

// Save stores val under key. An existing key yields ErrConflict.
func (s *StateStore) Save(ctx context.Context, key, val string, ttl time.Duration) error {
	ok, err := s.rdb.SetNX(ctx, s.prefix+":"+key, val, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis save state: %w", err)
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// Take returns and deletes the value under key.
func (s *StateStore) Take(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.GetDel(ctx, s.prefix+":"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis take state: %w", err)
	}
	return val, nil
}
