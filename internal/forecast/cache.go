package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type RedisCache struct {
	Client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{Client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.Client.Set(ctx, key, val, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// CachedPredictor memoizes predictions per product, horizon and start day.
// Cache failures fall through to Next.
type CachedPredictor struct {
	Next  Predictor
	Cache Cache
	TTL   time.Duration
	Log   *zap.Logger
}

func cacheKey(product string, days int, start time.Time) string {
	return fmt.Sprintf("forecast:%s:%d:%s", product, days, start.Format(time.DateOnly))
}

func (c CachedPredictor) Predict(ctx context.Context, product string, days int, start time.Time) ([]Prediction, error) {
	key := cacheKey(product, days, start)
	if raw, ok, err := c.Cache.Get(ctx, key); err != nil {
		c.warn("forecast cache read failed", key, err)
	} else if ok {
		var preds []Prediction
		if err := json.Unmarshal(raw, &preds); err == nil {
			return preds, nil
		}
	}

	preds, err := c.Next.Predict(ctx, product, days, start)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(preds)
	if err == nil {
		err = c.Cache.Set(ctx, key, raw, c.TTL)
	}
	if err != nil {
		c.warn("forecast cache write failed", key, err)
	}
	return preds, nil
}

func (c CachedPredictor) warn(msg, key string, err error) {
	if c.Log != nil {
		c.Log.Warn(msg, zap.String("key", key), zap.Error(err))
	}
}
