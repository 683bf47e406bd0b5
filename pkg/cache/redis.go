// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/teradata-labs/strata/pkg/types"
)

const (
	// DefaultRedisKeyPrefix namespaces cache keys in a shared Redis.
	DefaultRedisKeyPrefix = "nttp:l1:"

	// DefaultRedisTTL is the sliding expiration applied on write and
	// refreshed on read.
	DefaultRedisTTL = 24 * time.Hour

	redisScanBatch = 100
)

// RedisStore is the external-KV L1 implementation. Values are
// JSON-serialized CachedEntry documents with ISO-8601 timestamps; the TTL
// slides on every read. Hit counting is read-modify-write with no
// cross-process atomicity, which is acceptable because stats are
// approximate by contract.
//
// Connection failures degrade: Get reports a miss, writes log and return
// nil, and the coordinator treats the tier as empty.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// RedisStoreConfig configures the Redis-backed store.
type RedisStoreConfig struct {
	// URL is the Redis connection string (redis://...)
	URL string

	// KeyPrefix namespaces the cache. Default: "nttp:l1:"
	KeyPrefix string

	// TTL is the sliding expiration. Default: 24h
	TTL time.Duration

	// Logger for degradation warnings
	Logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisStoreConfig) (*RedisStore, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, types.NewCacheError("invalid redis URL", err)
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultRedisTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		cfg.Logger.Warn("redis unreachable at startup, cache will degrade to misses", zap.Error(err))
	}

	return &RedisStore{
		client: client,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
		now:    time.Now,
	}, nil
}

func (s *RedisStore) key(fingerprint string) string {
	return s.prefix + fingerprint
}

// Get fetches the entry, bumps its hit bookkeeping in place and refreshes
// the TTL (sliding expiration).
func (s *RedisStore) Get(ctx context.Context, fingerprint, exampleQuery string) (*types.CachedEntry, bool, error) {
	raw, err := s.client.Get(ctx, s.key(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Warn("redis get failed, treating as miss",
			zap.String("fingerprint", fingerprint),
			zap.Error(err))
		return nil, false, nil
	}

	var entry types.CachedEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("corrupt cache entry, treating as miss",
			zap.String("fingerprint", fingerprint),
			zap.Error(err))
		return nil, false, nil
	}

	entry.RecordHit(s.now())
	if exampleQuery != "" {
		entry.AddExample(exampleQuery)
	}
	s.writeBack(ctx, &entry)
	return &entry, true, nil
}

// Peek fetches the entry without touching counters or the TTL.
func (s *RedisStore) Peek(ctx context.Context, fingerprint string) (*types.CachedEntry, bool, error) {
	raw, err := s.client.Get(ctx, s.key(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Warn("redis peek failed, treating as miss",
			zap.String("fingerprint", fingerprint),
			zap.Error(err))
		return nil, false, nil
	}
	var entry types.CachedEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, nil
	}
	return &entry, true, nil
}

// writeBack persists the mutated entry with a fresh TTL. Best effort: a
// failed write-back costs approximate stats, not correctness.
func (s *RedisStore) writeBack(ctx context.Context, entry *types.CachedEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, s.key(entry.Fingerprint), raw, s.ttl).Err(); err != nil {
		s.logger.Warn("redis write-back failed",
			zap.String("fingerprint", entry.Fingerprint),
			zap.Error(err))
	}
}

// Set writes the entry with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, entry *types.CachedEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return types.NewCacheError("failed to serialize cache entry", err)
	}
	if err := s.client.Set(ctx, s.key(entry.Fingerprint), raw, s.ttl).Err(); err != nil {
		s.logger.Warn("redis set failed, entry not cached",
			zap.String("fingerprint", entry.Fingerprint),
			zap.Error(err))
	}
	return nil
}

// Delete removes the entry, failing on pinned entries.
func (s *RedisStore) Delete(ctx context.Context, fingerprint string) error {
	entry, ok, err := s.Peek(ctx, fingerprint)
	if err != nil || !ok {
		return err
	}
	if entry.Pinned {
		return types.NewCacheError("cannot delete pinned entry "+fingerprint, nil).
			WithSuggestions("unpin the entry first")
	}
	if err := s.client.Del(ctx, s.key(fingerprint)).Err(); err != nil {
		return types.NewCacheError("redis delete failed", err)
	}
	return nil
}

// Clear removes all unpinned entries under the key prefix. O(N) prefix
// scan; the working set behind one prefix is expected to be modest.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.scan(ctx, func(key string, entry *types.CachedEntry) error {
		if entry.Pinned {
			return nil
		}
		return s.client.Del(ctx, key).Err()
	})
}

// List returns all entries under the prefix. O(N) scan.
func (s *RedisStore) List(ctx context.Context) ([]*types.CachedEntry, error) {
	var out []*types.CachedEntry
	err := s.scan(ctx, func(_ string, entry *types.CachedEntry) error {
		out = append(out, entry)
		return nil
	})
	return out, err
}

// Len counts entries under the prefix. O(N) scan.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(ctx, func(string, *types.CachedEntry) error {
		n++
		return nil
	})
	return n, err
}

// SetPinned flips the pin flag via read-modify-write.
func (s *RedisStore) SetPinned(ctx context.Context, fingerprint string, pinned bool) error {
	entry, ok, err := s.Peek(ctx, fingerprint)
	if err != nil {
		return err
	}
	if !ok {
		return types.NewCacheError("no entry for fingerprint "+fingerprint, nil)
	}
	entry.Pinned = pinned
	raw, err := json.Marshal(entry)
	if err != nil {
		return types.NewCacheError("failed to serialize cache entry", err)
	}
	if err := s.client.Set(ctx, s.key(fingerprint), raw, s.ttl).Err(); err != nil {
		return types.NewCacheError("redis set failed", err)
	}
	return nil
}

// scan iterates all entries under the prefix, decoding each.
func (s *RedisStore) scan(ctx context.Context, fn func(key string, entry *types.CachedEntry) error) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", redisScanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			s.logger.Warn("redis scan get failed", zap.String("key", key), zap.Error(err))
			continue
		}
		var entry types.CachedEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if err := fn(key, &entry); err != nil {
			return types.NewCacheError("redis scan callback failed", err)
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn("redis scan failed", zap.Error(err))
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
