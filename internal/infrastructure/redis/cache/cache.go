// Package cache holds the two Redis-backed read models BEACON keeps
// outside the hot path: listed-token metadata and each book's best
// bid/ask, grounded on the matching engine's snapshot store (same
// redis.Client, same Get/Set/HGet/HSet calls).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	tokenv1 "github.com/beacon-exchange/beacon/internal/domain/token/v1"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
	"github.com/beacon-exchange/beacon/pkg/redis"
)

// MetadataCache holds a JSON copy of each listed TokenRecord, written on
// list and removed on delist. The engine's own query paths (tokens(),
// data()) read the in-memory registry, not this cache.
type MetadataCache struct {
	client redis.Client
	logger logger.Interface
	prefix string
}

// NewMetadataCache creates a MetadataCache.
func NewMetadataCache(client redis.Client, log logger.Interface, prefix string) *MetadataCache {
	return &MetadataCache{client: client, logger: log, prefix: prefix}
}

func (c *MetadataCache) key(token string) string {
	return fmt.Sprintf("%stoken:%s", c.prefix, token)
}

// Put writes rec to the cache with no expiry; it is invalidated
// explicitly by Delete, not by TTL, since a listed token's metadata is
// immutable for the token's lifetime.
func (c *MetadataCache) Put(ctx context.Context, rec *tokenv1.TokenRecord) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return errors.TracerFromError(err)
	}
	if err := c.client.Set(ctx, c.key(rec.ID), buf, 0); err != nil {
		return errors.New(errors.RedisSetError, "token", "cache put failed for %s: %v", rec.ID, err)
	}
	return nil
}

// Get returns the cached TokenRecord, or ok=false on a cache miss.
func (c *MetadataCache) Get(ctx context.Context, token string) (rec *tokenv1.TokenRecord, ok bool, err error) {
	raw, err := c.client.Get(ctx, c.key(token))
	if err != nil {
		return nil, false, errors.New(errors.RedisGetError, "token", "cache get failed for %s: %v", token, err)
	}
	if raw == "" {
		return nil, false, nil
	}
	var out tokenv1.TokenRecord
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false, errors.TracerFromError(err)
	}
	return &out, true, nil
}

// Delete evicts token's cached metadata after a delist.
func (c *MetadataCache) Delete(ctx context.Context, token string) error {
	if _, err := c.client.Del(ctx, c.key(token)); err != nil {
		return errors.New(errors.RedisDelError, "token", "cache delete failed for %s: %v", token, err)
	}
	return nil
}

// PriceCache caches each book's best bid/ask so a price-only read
// doesn't need to lock the live Book.
type PriceCache struct {
	client redis.Client
	logger logger.Interface
	prefix string
	ttl    time.Duration
}

// NewPriceCache creates a PriceCache. ttl is stored on the cache, but
// SetBest writes the hash without an expiry, so an entry stays until it
// is overwritten (a delisted token's entry is never removed).
func NewPriceCache(client redis.Client, log logger.Interface, prefix string, ttl time.Duration) *PriceCache {
	return &PriceCache{client: client, logger: log, prefix: prefix, ttl: ttl}
}

func (c *PriceCache) key(token string) string {
	return fmt.Sprintf("%sprice:%s", c.prefix, token)
}

// SetBest refreshes the best-bid/best-ask read model for token.
func (c *PriceCache) SetBest(ctx context.Context, token string, bestBid, bestAsk uint64) error {
	_, err := c.client.HSet(ctx, c.key(token), map[string]any{
		"best_bid": strconv.FormatUint(bestBid, 10),
		"best_ask": strconv.FormatUint(bestAsk, 10),
	})
	if err != nil {
		return errors.New(errors.RedisHSetError, "token", "price cache set failed for %s: %v", token, err)
	}
	return nil
}

// GetBest returns the cached best bid/ask for token; a missing field
// reads back as 0 (pkg/redis.HGet returns "" on a miss).
func (c *PriceCache) GetBest(ctx context.Context, token string) (bestBid, bestAsk uint64, err error) {
	bidRaw, err := c.client.HGet(ctx, c.key(token), "best_bid")
	if err != nil {
		return 0, 0, errors.New(errors.RedisHGetError, "token", "price cache get failed for %s: %v", token, err)
	}
	askRaw, err := c.client.HGet(ctx, c.key(token), "best_ask")
	if err != nil {
		return 0, 0, errors.New(errors.RedisHGetError, "token", "price cache get failed for %s: %v", token, err)
	}
	bestBid, _ = strconv.ParseUint(bidRaw, 10, 64)
	bestAsk, _ = strconv.ParseUint(askRaw, 10, 64)
	return bestBid, bestAsk, nil
}
