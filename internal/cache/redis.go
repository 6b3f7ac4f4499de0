package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"coinwatch/internal/aggregate"
)

// RedisPublisher mirrors the latest snapshot into Redis so other processes
// can read current prices without hitting the providers. Publishing is best
// effort: the monitoring loop never depends on it.
type RedisPublisher struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// Options configure the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisPublisher dials Redis and verifies connectivity.
func NewRedisPublisher(ctx context.Context, opts Options, logger zerolog.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &RedisPublisher{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}, nil
}

func snapshotKey(symbol, quote string) string {
	return fmt.Sprintf("coinwatch:latest:%s:%s", strings.ToLower(symbol), strings.ToLower(quote))
}

// Publish stores the snapshot under coinwatch:latest:<symbol>:<quote>.
func (p *RedisPublisher) Publish(ctx context.Context, snap aggregate.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	key := snapshotKey(snap.Symbol, snap.QuoteCurrency)
	if err := p.client.Set(ctx, key, payload, p.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	p.logger.Debug().Str("key", key).Msg("snapshot published")
	return nil
}

// Close releases the underlying connection pool.
func (p *RedisPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
