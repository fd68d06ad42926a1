package store

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps the identity cache in Redis, for deployments where
// several kiosk frontends at the same table share one session (the
// cross-tab storage case). Keys are namespaced per device id.
//
// Reads degrade to "absent" on connection errors instead of failing: the
// reconciliation logic prefers last-known-good or empty state over hard
// errors, matching how background refreshes are handled elsewhere.
type RedisStore struct {
	rdb       *redis.Client
	namespace string
}

const redisOpTimeout = 2 * time.Second

// NewRedisStore creates a store over an existing Redis client. The
// namespace (typically a device or kiosk id) prefixes every key.
func NewRedisStore(rdb *redis.Client, namespace string) *RedisStore {
	return &RedisStore{rdb: rdb, namespace: namespace}
}

func (r *RedisStore) key(k string) string {
	return r.namespace + ":" + k
}

// Get returns the value for key and whether it was present
func (r *RedisStore) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("store: redis get %s failed: %v", key, err)
		return "", false
	}
	return v, true
}

// Set stores value under key
func (r *RedisStore) Set(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.rdb.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		log.Printf("store: redis set %s failed: %v", key, err)
	}
}

// Remove deletes key
func (r *RedisStore) Remove(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		log.Printf("store: redis del %s failed: %v", key, err)
	}
}

// Keys returns all keys in this store's namespace, without the prefix
func (r *RedisStore) Keys() []string {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.rdb.Keys(ctx, r.namespace+":*").Result()
	if err != nil {
		log.Printf("store: redis keys failed: %v", err)
		return nil
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, r.namespace+":"))
	}
	return keys
}
