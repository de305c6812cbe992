package db

import (
	"backend-peakjournal/internal/config"

	"github.com/redis/go-redis/v9"
)

func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

// ExpeditionDetailKey is the cache key convention for the rendered
// expedition detail. Every service that mutates an expedition or its
// children deletes this key.
func ExpeditionDetailKey(expeditionID string) string {
	return "expedition:detail:" + expeditionID
}
