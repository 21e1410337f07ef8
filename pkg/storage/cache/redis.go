package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"patternscope/internal/market"

	"github.com/redis/go-redis/v9"
)

// BarCache keeps fetched daily series in Redis so repeated dashboard
// requests for the same window skip the provider.
type BarCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBarCache(addr, password string, db int, ttl time.Duration) (*BarCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &BarCache{client: client, ttl: ttl}, nil
}

func key(symbol string, w market.Window) string {
	return fmt.Sprintf("bars:%s:%s:%s", symbol, w.From(), w.To())
}

// Get returns the cached series and whether it was found.
func (c *BarCache) Get(ctx context.Context, symbol string, w market.Window) (market.Series, bool, error) {
	data, err := c.client.Get(ctx, key(symbol, w)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return market.Series{}, false, nil
		}
		return market.Series{}, false, fmt.Errorf("failed to get bars from redis: %w", err)
	}

	var s market.Series
	if err := json.Unmarshal(data, &s); err != nil {
		return market.Series{}, false, fmt.Errorf("failed to unmarshal bars: %w", err)
	}
	return s, true, nil
}

func (c *BarCache) Set(ctx context.Context, s market.Series, w market.Window) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal bars: %w", err)
	}
	if err := c.client.Set(ctx, key(s.Symbol, w), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set bars in redis: %w", err)
	}
	return nil
}

func (c *BarCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *BarCache) Close() error {
	return c.client.Close()
}
