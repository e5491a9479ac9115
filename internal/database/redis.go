package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foodgram/foodgram/internal/config"
)

// redisClientName tags Foodgram connections in CLIENT LIST.
const redisClientName = "foodgram-api"

// NewRedis connects the token store. Every authenticated request resolves
// its `Authorization: Token` header through this client (keys
// token:<hmac>), so a failed ping aborts startup rather than serving 401s.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	opts.ClientName = redisClientName

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging token store at %s: %w", opts.Addr, err)
	}

	slog.Info("token store connected", slog.String("addr", opts.Addr), slog.Int("db", opts.DB))
	return client, nil
}
