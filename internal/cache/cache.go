// Package cache stores raw model responses in Redis so identical requests
// are not sent to the model twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "stepwise:raw:"

// Cache is a Redis-backed response cache. A nil *Cache is valid and caches
// nothing.
type Cache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// New connects to Redis at addr and verifies the connection.
func New(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Cache{rdb: rdb, ttl: ttl}, nil
}

// KeyParts identifies a generation request.
type KeyParts struct {
	Mode      string
	Model     string
	MaxTokens int
	System    string
	Prompt    string
	Images    [][]byte
}

// Key hashes the request into a cache key. Fields are length-prefixed so
// different splits of the same bytes never collide.
func Key(p KeyParts) string {
	h := sha256.New()
	write := func(b []byte) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(b)))
		h.Write(n[:])
		h.Write(b)
	}
	write([]byte(p.Mode))
	write([]byte(p.Model))
	write([]byte(strconv.Itoa(p.MaxTokens)))
	write([]byte(p.System))
	write([]byte(p.Prompt))
	for _, img := range p.Images {
		write(img)
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response for key. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (raw string, ok bool, err error) {
	if c == nil {
		return "", false, nil
	}
	raw, err = c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return raw, true, nil
}

// Set stores a response under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key, raw string) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
