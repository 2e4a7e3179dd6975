package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the shared Redis connection, nil when Redis is unreachable.
// Helpers and the admission gate degrade gracefully without it.
var Client *redis.Client

// InitRedis connects the shared client and verifies it with a ping. Redis
// is optional infrastructure here: on failure the client is discarded and
// the process runs uncached with process-local admission counters.
func InitRedis(addr string) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, continuing without cache", "addr", addr, "error", err)
		_ = client.Close()
		Client = nil
		return
	}

	slog.Info("redis connected", "addr", addr)
	Client = client
}

func GetClient() *redis.Client {
	return Client
}
