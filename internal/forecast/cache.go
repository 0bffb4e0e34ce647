package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stockpilot/internal/model"
	"stockpilot/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "stockpilot:forecast:"

type cachedClient struct {
	next  Client
	redis redis.Cmdable
	ttl   time.Duration
	log   logger.Logger
}

// WithCache memoises successful remote answers in Redis. Cache errors are
// logged and bypassed; failed remote calls are never cached.
func WithCache(next Client, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) Client {
	return &cachedClient{next: next, redis: rdb, ttl: ttl, log: log.Named("forecast-cache")}
}

func (c *cachedClient) GeneralForecast(ctx context.Context) ([]model.ForecastPoint, error) {
	var points []model.ForecastPoint
	err := c.through(ctx, keyPrefix+"general", &points, func() (interface{}, error) {
		return c.next.GeneralForecast(ctx)
	})
	return points, err
}

func (c *cachedClient) ProductForecast(ctx context.Context, productID string) ([]model.ForecastPoint, error) {
	var points []model.ForecastPoint
	err := c.through(ctx, keyPrefix+"product:"+productID, &points, func() (interface{}, error) {
		return c.next.ProductForecast(ctx, productID)
	})
	return points, err
}

func (c *cachedClient) ReorderPoint(ctx context.Context, productID string) (*model.ReorderSuggestion, error) {
	var s model.ReorderSuggestion
	err := c.through(ctx, keyPrefix+"reorder:"+productID, &s, func() (interface{}, error) {
		return c.next.ReorderPoint(ctx, productID)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// through decodes a cached value into out, or calls fetch and stores its result
func (c *cachedClient) through(ctx context.Context, key string, out interface{}, fetch func() (interface{}, error)) error {
	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, out); jsonErr == nil {
			return nil
		}
		c.log.Warn("discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("forecast cache read failed", zap.String("key", key), zap.Error(err))
	}

	value, err := fetch()
	if err != nil {
		return err
	}
	raw, err = json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("forecast cache write failed", zap.String("key", key), zap.Error(err))
	}
	return json.Unmarshal(raw, out)
}

// NewRedisClient connects and pings, mirroring how the service fails fast on startup
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
