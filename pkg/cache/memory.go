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
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/strata/pkg/types"
)

// DefaultMemoryMaxSize is the default L1 entry cap.
const DefaultMemoryMaxSize = 1000

// MemoryStore is the in-process L1 cache: a fingerprint map plus an LRU
// list (front = most recently used). All operations take the exclusive
// lock; a read that promotes to MRU is a write.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // of *types.CachedEntry
	maxSize int
	logger  *zap.Logger
	now     func() time.Time
}

// MemoryStoreConfig configures the in-memory store.
type MemoryStoreConfig struct {
	// MaxSize caps the entry count. Default: 1000
	MaxSize int

	// Logger for eviction warnings
	Logger *zap.Logger
}

// NewMemoryStore creates an empty in-memory L1 cache.
func NewMemoryStore(cfg MemoryStoreConfig) *MemoryStore {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMemoryMaxSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &MemoryStore{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: cfg.MaxSize,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// Get returns a copy of the entry, promoting it to MRU and recording the
// hit and example query.
func (s *MemoryStore) Get(_ context.Context, fingerprint, exampleQuery string) (*types.CachedEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[fingerprint]
	if !ok {
		return nil, false, nil
	}

	entry := elem.Value.(*types.CachedEntry)
	entry.RecordHit(s.now())
	if exampleQuery != "" {
		entry.AddExample(exampleQuery)
	}
	s.lru.MoveToFront(elem)
	return entry.Clone(), true, nil
}

// Peek returns a copy of the entry without touching LRU order or counters.
func (s *MemoryStore) Peek(_ context.Context, fingerprint string) (*types.CachedEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[fingerprint]
	if !ok {
		return nil, false, nil
	}
	return elem.Value.(*types.CachedEntry).Clone(), true, nil
}

// Set inserts or replaces the entry, evicting the LRU unpinned entry when
// full. If every entry is pinned the LRU entry is evicted regardless and a
// warning is logged: an all-pinned cache at capacity is a configuration
// error, not something to hide.
func (s *MemoryStore) Set(_ context.Context, entry *types.CachedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[entry.Fingerprint]; ok {
		elem.Value = entry.Clone()
		s.lru.MoveToFront(elem)
		return nil
	}

	if s.lru.Len() >= s.maxSize {
		s.evictLocked()
	}
	s.entries[entry.Fingerprint] = s.lru.PushFront(entry.Clone())
	return nil
}

// evictLocked removes the least-recently-used unpinned entry, falling back
// to the LRU entry outright when everything is pinned.
func (s *MemoryStore) evictLocked() {
	for elem := s.lru.Back(); elem != nil; elem = elem.Prev() {
		if !elem.Value.(*types.CachedEntry).Pinned {
			s.removeLocked(elem)
			return
		}
	}

	elem := s.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*types.CachedEntry)
	s.logger.Warn("all cache entries pinned at capacity, evicting pinned LRU entry",
		zap.String("fingerprint", entry.Fingerprint),
		zap.Int("max_size", s.maxSize))
	s.removeLocked(elem)
}

func (s *MemoryStore) removeLocked(elem *list.Element) {
	entry := s.lru.Remove(elem).(*types.CachedEntry)
	delete(s.entries, entry.Fingerprint)
}

// Delete removes the entry, failing on pinned entries.
func (s *MemoryStore) Delete(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[fingerprint]
	if !ok {
		return nil
	}
	if elem.Value.(*types.CachedEntry).Pinned {
		return types.NewCacheError("cannot delete pinned entry "+fingerprint, nil).
			WithSuggestions("unpin the entry first")
	}
	s.removeLocked(elem)
	return nil
}

// Clear removes all unpinned entries.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *list.Element
	for elem := s.lru.Front(); elem != nil; elem = next {
		next = elem.Next()
		if !elem.Value.(*types.CachedEntry).Pinned {
			s.removeLocked(elem)
		}
	}
	return nil
}

// List returns copies of all entries, MRU first.
func (s *MemoryStore) List(_ context.Context) ([]*types.CachedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.CachedEntry, 0, s.lru.Len())
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(*types.CachedEntry).Clone())
	}
	return out, nil
}

// Len returns the entry count.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len(), nil
}

// SetPinned flips the pin flag.
func (s *MemoryStore) SetPinned(_ context.Context, fingerprint string, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[fingerprint]
	if !ok {
		return types.NewCacheError("no entry for fingerprint "+fingerprint, nil)
	}
	elem.Value.(*types.CachedEntry).Pinned = pinned
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
