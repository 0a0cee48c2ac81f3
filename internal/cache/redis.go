// Package cache provides an optional Redis-backed cache for per-document
// rotation reports, keyed by content digest: a document seen before skips
// the detection stage entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type DecisionCache struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

// New connects to Redis and returns a decision cache. Callers treat a nil
// *DecisionCache as "caching disabled"; all methods are nil-safe.
func New(redisURL string, ttl time.Duration) (*DecisionCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil { return nil, err }
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil { return nil, err }
	return &DecisionCache{client: c, keyNS: "biratu:decisions", ttl: ttl}, nil
}

func (c *DecisionCache) key(digest string) string { return fmt.Sprintf("%s:%s", c.keyNS, digest) }

// Get returns the cached report payload for digest, if any.
func (c *DecisionCache) Get(ctx context.Context, digest string) ([]byte, bool, error) {
	if c == nil { return nil, false, nil }
	b, err := c.client.Get(ctx, c.key(digest)).Bytes()
	if err == redis.Nil { return nil, false, nil }
	if err != nil { return nil, false, err }
	return b, true, nil
}

// Set stores the report payload for digest with the configured TTL.
func (c *DecisionCache) Set(ctx context.Context, digest string, payload []byte) error {
	if c == nil { return nil }
	return c.client.Set(ctx, c.key(digest), payload, c.ttl).Err()
}

func (c *DecisionCache) Close() error {
	if c == nil { return nil }
	return c.client.Close()
}

// FileDigest returns the hex SHA-256 of the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil { return "", err }
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil { return "", err }
	return hex.EncodeToString(h.Sum(nil)), nil
}
