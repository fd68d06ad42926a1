package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const defaultStorePath = "terra_session.json"

// Open constructs the identity store named by backend: "memory" for a
// throwaway in-process cache, "file" for a JSON file at path (a default
// next to the binary when path is empty), or "redis" for a namespaced
// cache on the server at redisAddr.
//
// The redis backend is verified with a ping so a bad address surfaces at
// startup instead of as degraded reads later.
func Open(backend, path, redisAddr, namespace string) (Store, error) {
	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		if path == "" {
			path = defaultStorePath
		}
		return NewFileStore(path)
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", redisAddr, err)
		}
		return NewRedisStore(rdb, namespace), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
