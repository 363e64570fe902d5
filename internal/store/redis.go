package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a KeyValueStore over a Redis server. Keys are namespaced as
// "<scope>:<key>" so several sessions can share one database.
type Redis struct {
	rdb    *redis.Client
	prefix string

	// TTL expires every written key after the given duration. Zero keeps
	// keys until removed.
	TTL time.Duration
}

var _ KeyValueStore = (*Redis)(nil)

// OpenRedis connects to the Redis server at addr and pings it, failing fast
// if it is unreachable.
func OpenRedis(ctx context.Context, addr, scope string) (*Redis, error) {
	if scope == "" {
		scope = DefaultScope
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &Redis{rdb: rdb, prefix: scope + ":"}, nil
}

// Get returns the value stored under key.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, r.TTL).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Keys scans for keys starting with prefix and returns them sorted, with
// the scope namespace stripped.
func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	iter := r.rdb.Scan(ctx, 0, globEscape(r.prefix+prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Close closes the client connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// globEscape quotes the characters MATCH treats as pattern syntax.
func globEscape(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
