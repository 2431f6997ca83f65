package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"augur/internal/domain/market_data"
	"augur/internal/domain/signal"
	"augur/pkg/errors"
)

const signalKeyPrefix = "signal"

// SignalCache stores the most recent generated signal per symbol and
// timeframe with a TTL, so downstream consumers read fresh signals without
// touching the engine.
type SignalCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewSignalCache creates a new signal cache
func NewSignalCache(client *goredis.Client, ttl time.Duration) *SignalCache {
	return &SignalCache{client: client, ttl: ttl}
}

// Set stores a signal, replacing any previous one for the same key
func (c *SignalCache) Set(ctx context.Context, sig *signal.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return errors.Wrap(err, "failed to marshal signal")
	}

	key := signalKey(sig.Symbol, sig.Timeframe.String())
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to store signal %s", key)
	}

	return nil
}

// Get retrieves the cached signal for a symbol and timeframe. Returns
// ErrNotFound when no signal is cached or it has expired.
func (c *SignalCache) Get(ctx context.Context, symbol string, timeframe market_data.Timeframe) (*signal.Signal, error) {
	key := signalKey(symbol, timeframe.String())

	data, err := c.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get signal %s", key)
	}

	var sig signal.Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal signal")
	}

	return &sig, nil
}

// Delete removes a cached signal
func (c *SignalCache) Delete(ctx context.Context, symbol string, timeframe market_data.Timeframe) error {
	return c.client.Del(ctx, signalKey(symbol, timeframe.String())).Err()
}

func signalKey(symbol, timeframe string) string {
	return fmt.Sprintf("%s:%s:%s", signalKeyPrefix, symbol, timeframe)
}
