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
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/strata/pkg/llm"
	"github.com/teradata-labs/strata/pkg/types"
)

const (
	// DefaultSemanticMaxSize is the default L2 entry cap. A flat linear
	// scan is correct and fast enough at this size.
	DefaultSemanticMaxSize = 500

	// DefaultSimilarityThreshold is the minimum cosine similarity for a
	// semantic match.
	DefaultSimilarityThreshold = 0.85
)

// SemanticMatch is a successful L2 lookup.
type SemanticMatch struct {
	// Entry is a copy of the matched cache entry
	Entry *types.CachedEntry

	// Query is the natural-language text the entry was stored under
	Query string

	// Similarity is the cosine score against the probe
	Similarity float64
}

// semanticEntry pairs a cached entry with the embedding of the query text
// it was stored under. Slice order is LRU order (end = MRU).
type semanticEntry struct {
	query     string
	embedding []float32
	entry     *types.CachedEntry
}

// SemanticStore is the L2 vector cache: an ordered sequence of entries
// scanned linearly with inline cosine similarity. The embedding function
// is pluggable; entries whose vector length disagrees with the store's
// dimension are rejected, because changing embedding providers mid-run
// invalidates every stored vector.
type SemanticStore struct {
	mu        sync.Mutex
	entries   []*semanticEntry
	dim       int
	threshold float64
	maxSize   int
	embedder  llm.Embedder
	logger    *zap.Logger
	now       func() time.Time
}

// SemanticStoreConfig configures the L2 store.
type SemanticStoreConfig struct {
	// Embedder converts query text to vectors
	Embedder llm.Embedder

	// Threshold is the minimum cosine similarity. Default: 0.85
	Threshold float64

	// MaxSize caps the entry count. Default: 500
	MaxSize int

	// Logger for eviction warnings
	Logger *zap.Logger
}

// NewSemanticStore creates an empty semantic cache.
func NewSemanticStore(cfg SemanticStoreConfig) (*SemanticStore, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("semantic store requires an embedder")
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultSimilarityThreshold
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultSemanticMaxSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &SemanticStore{
		threshold: cfg.Threshold,
		maxSize:   cfg.MaxSize,
		embedder:  cfg.Embedder,
		logger:    cfg.Logger,
		now:       time.Now,
	}, nil
}

// Find embeds query and scans for the best entry at or above the
// threshold. The computed embedding is always returned so the caller can
// reuse it on the populate path; the embedding is computed exactly once
// per lookup. On a hit the matched entry is promoted to MRU and its hit
// bookkeeping updated.
func (s *SemanticStore) Find(ctx context.Context, query string) (*SemanticMatch, []float32, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bestIdx := -1
	bestScore := 0.0
	// Newest-first so ties break toward the most recently used entry.
	for i := len(s.entries) - 1; i >= 0; i-- {
		if len(s.entries[i].embedding) != len(embedding) {
			continue
		}
		score := cosine(embedding, s.entries[i].embedding)
		if score >= s.threshold && score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}
	if bestIdx < 0 {
		return nil, embedding, nil
	}

	match := s.entries[bestIdx]
	match.entry.RecordHit(s.now())
	match.entry.AddExample(query)
	s.moveToEndLocked(bestIdx)

	return &SemanticMatch{
		Entry:      match.entry.Clone(),
		Query:      match.query,
		Similarity: bestScore,
	}, embedding, nil
}

// Add embeds query and stores the entry.
func (s *SemanticStore) Add(ctx context.Context, query string, entry *types.CachedEntry) error {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return err
	}
	return s.AddWithEmbedding(ctx, query, embedding, entry)
}

// AddWithEmbedding stores the entry under a precomputed embedding. This is
// the cache-populate path after generation, where the lookup already paid
// for the embedding.
func (s *SemanticStore) AddWithEmbedding(_ context.Context, query string, embedding []float32, entry *types.CachedEntry) error {
	if len(embedding) == 0 {
		return types.NewCacheError("refusing to store an empty embedding", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		s.dim = len(embedding)
	} else if len(embedding) != s.dim {
		return types.NewCacheError(
			fmt.Sprintf("embedding dimension mismatch: store holds %d-dim vectors, got %d", s.dim, len(embedding)), nil).
			WithSuggestions("clear the semantic cache after changing embedding provider or model")
	}

	// Replace an existing entry for the same fingerprint in place.
	for i, e := range s.entries {
		if e.entry.Fingerprint == entry.Fingerprint {
			s.entries[i] = &semanticEntry{query: query, embedding: embedding, entry: entry.Clone()}
			s.moveToEndLocked(i)
			return nil
		}
	}

	if len(s.entries) >= s.maxSize {
		s.evictLocked()
	}
	s.entries = append(s.entries, &semanticEntry{query: query, embedding: embedding, entry: entry.Clone()})
	return nil
}

// evictLocked drops the LRU unpinned entry, or the LRU entry outright
// (with a warning) when everything is pinned.
func (s *SemanticStore) evictLocked() {
	for i, e := range s.entries {
		if !e.entry.Pinned {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
	if len(s.entries) == 0 {
		return
	}
	s.logger.Warn("all semantic cache entries pinned at capacity, evicting pinned LRU entry",
		zap.String("fingerprint", s.entries[0].entry.Fingerprint),
		zap.Int("max_size", s.maxSize))
	s.entries = s.entries[1:]
}

func (s *SemanticStore) moveToEndLocked(i int) {
	e := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.entries = append(s.entries, e)
}

// Delete removes the entry for fingerprint, failing on pinned entries.
func (s *SemanticStore) Delete(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.entry.Fingerprint != fingerprint {
			continue
		}
		if e.entry.Pinned {
			return types.NewCacheError("cannot delete pinned entry "+fingerprint, nil).
				WithSuggestions("unpin the entry first")
		}
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		return nil
	}
	return nil
}

// SetPinned flips the pin flag for fingerprint if present.
func (s *SemanticStore) SetPinned(_ context.Context, fingerprint string, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.entry.Fingerprint == fingerprint {
			e.entry.Pinned = pinned
			return nil
		}
	}
	return nil
}

// Clear removes all unpinned entries and resets the dimension when the
// store empties, so a provider change can start fresh.
func (s *SemanticStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.entry.Pinned {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	if len(s.entries) == 0 {
		s.dim = 0
	}
	return nil
}

// Len returns the entry count.
func (s *SemanticStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// Threshold returns the configured similarity threshold.
func (s *SemanticStore) Threshold() float64 {
	return s.threshold
}

// cosine computes cosine similarity in float64 without allocating.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
