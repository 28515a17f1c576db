package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

const opTimeout = 500 * time.Millisecond

// PriceStore is the uncached source of daily closes
type PriceStore interface {
	PriceOnOrAfter(ticker string, date time.Time) (decimal.NullDecimal, error)
	PriceOnOrBefore(ticker string, date time.Time) (decimal.NullDecimal, error)
	LatestPrice(ticker string) (decimal.NullDecimal, error)
}

// PriceCache serves price lookups from Redis and falls back to the store.
// Only resolved prices are cached; a miss in the store is always re-queried.
type PriceCache struct {
	store     PriceStore
	redis     *RedisClient
	ttl       time.Duration
	latestTTL time.Duration
}

// NewPriceCache decorates store. A nil client disables caching.
func NewPriceCache(store PriceStore, client *RedisClient, ttl, latestTTL time.Duration) *PriceCache {
	return &PriceCache{
		store:     store,
		redis:     client,
		ttl:       ttl,
		latestTTL: latestTTL,
	}
}

// PriceOnOrAfter returns the first close on or after date
func (c *PriceCache) PriceOnOrAfter(ticker string, date time.Time) (decimal.NullDecimal, error) {
	key := dateKey("after", ticker, date)
	return c.lookup(key, c.ttl, func() (decimal.NullDecimal, error) {
		return c.store.PriceOnOrAfter(ticker, date)
	})
}

// PriceOnOrBefore returns the last close on or before date
func (c *PriceCache) PriceOnOrBefore(ticker string, date time.Time) (decimal.NullDecimal, error) {
	key := dateKey("before", ticker, date)
	return c.lookup(key, c.ttl, func() (decimal.NullDecimal, error) {
		return c.store.PriceOnOrBefore(ticker, date)
	})
}

// LatestPrice returns the most recent close
func (c *PriceCache) LatestPrice(ticker string) (decimal.NullDecimal, error) {
	return c.lookup("price:latest:"+ticker, c.latestTTL, func() (decimal.NullDecimal, error) {
		return c.store.LatestPrice(ticker)
	})
}

func (c *PriceCache) lookup(key string, ttl time.Duration, load func() (decimal.NullDecimal, error)) (decimal.NullDecimal, error) {
	if c.redis == nil {
		return load()
	}

	var px decimal.Decimal
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	err := c.redis.Get(ctx, key, &px)
	cancel()
	if err == nil {
		return decimal.NewNullDecimal(px), nil
	}
	if !errors.Is(err, ErrMiss) {
		log.Printf("Price cache read failed for %s: %v", key, err)
	}

	v, err := load()
	if err != nil || !v.Valid {
		return v, err
	}

	ctx, cancel = context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := c.redis.Set(ctx, key, v.Decimal, ttl); err != nil {
		log.Printf("Price cache write failed for %s: %v", key, err)
	}
	return v, nil
}

func dateKey(kind, ticker string, date time.Time) string {
	return fmt.Sprintf("price:%s:%s:%s", kind, ticker, date.Format("2006-01-02"))
}
