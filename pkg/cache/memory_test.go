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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/strata/pkg/types"
)

func testEntry(fingerprint string) *types.CachedEntry {
	return &types.CachedEntry{
		Fingerprint:   fingerprint,
		SQL:           "SELECT * FROM users WHERE status = ?",
		Params:        []any{"active"},
		IntentPattern: "entity:users|operation:filter|filters:status=active",
	}
}

func TestMemoryStore_GetSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(MemoryStoreConfig{MaxSize: 10})

	require.NoError(t, s.Set(ctx, testEntry("aaaa")))

	entry, ok, err := s.Get(ctx, "aaaa", "get active users")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "SELECT * FROM users WHERE status = ?", entry.SQL)
	assert.Equal(t, int64(1), entry.HitCount)
	assert.Equal(t, []string{"get active users"}, entry.ExampleQueries)

	_, ok, err = s.Get(ctx, "missing", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_GetReturnsDefensiveCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(MemoryStoreConfig{MaxSize: 10})
	require.NoError(t, s.Set(ctx, testEntry("aaaa")))

	first, _, err := s.Get(ctx, "aaaa", "")
	require.NoError(t, err)
	first.SQL = "mutated"
	first.Params[0] = "mutated"

	second, _, err := s.Get(ctx, "aaaa", "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE status = ?", second.SQL)
	assert.Equal(t, "active", second.Params[0])
}

func TestMemoryStore_LRUEviction(t *testing.T) {
	ctx := context.Background()
	const maxSize = 5
	s := NewMemoryStore(MemoryStoreConfig{MaxSize: maxSize})

	// Insert more than capacity; only the most recent maxSize survive.
	const total = 12
	for i := 0; i < total; i++ {
		require.NoError(t, s.Set(ctx, testEntry(fmt.Sprintf("f%02d", i))))
	}

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, maxSize, n)

	for i := 0; i < total-maxSize; i++ {
		_, ok, _ := s.Peek(ctx, fmt.Sprintf("f%02d", i))
		assert.False(t, ok, "f%02d should have been evicted", i)
	}
	for i := total - maxSize; i < total; i++ {
		_, ok, _ := s.Peek(ctx, fmt.Sprintf("f%02d", i))
		assert.True(t, ok, "f%02d should survive", i)
	}
}

func TestMemoryStore_GetPromotesToMRU(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(MemoryStoreConfig{MaxSize: 2})

	require.NoError(t, s.Set(ctx, testEntry("old")))
	require.NoError(t, s.Set(ctx, testEntry("new")))

	// Touch "old" so "new" becomes the eviction candidate.
	_, ok, _ := s.Get(ctx, "old", "")
	require.True(t, ok)

	require.NoError(t, s.Set(ctx, testEntry("newest")))

	_, ok, _ = s.Peek(ctx, "old")
	assert.True(t, ok)
	_, ok, _ = s.Peek(ctx, "new")
	assert.False(t, ok)
}

func TestMemoryStore_EvictionSkipsPinned(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(MemoryStoreConfig{MaxSize: 3})

	require.NoError(t, s.Set(ctx, testEntry("pinned")))
	require.NoError(t, s.SetPinned(ctx, "pinned", true))
	require.NoError(t, s.Set(ctx, testEntry("b")))
	require.NoError(t, s.Set(ctx, testEntry("c")))

	// "pinned" is LRU but protected; "b" goes instead.
	require.NoError(t, s.Set(ctx, testEntry("d")))

	_, ok, _ := s.Peek(ctx, "pinned")
	assert.True(t, ok)
	_, ok, _ = s.Peek(ctx, "b")
	assert.False(t, ok)
}

func TestMemoryStore_AllPinnedEvictsAnyway(t *testing.T) {
	ctx := context.Background()
	const maxSize = 3
	s := NewMemoryStore(MemoryStoreConfig{MaxSize: maxSize})

	for i := 0; i < maxSize; i++ {
		f := fmt.Sprintf("p%d", i)
		require.NoError(t, s.Set(ctx, testEntry(f)))
		require.NoError(t, s.SetPinned(ctx, f, true))
	}

	require.NoError(t, s.Set(ctx, testEntry("fresh")))

	n, _ := s.Len(ctx)
	assert.Equal(t, maxSize, n)
	_, ok, _ := s.Peek(ctx, "fresh")
	assert.True(t, ok, "new entry must be present")
	_, ok, _ = s.Peek(ctx, "p0")
	assert.False(t, ok, "pinned LRU entry is sacrificed when everything is pinned")
}

func TestMemoryStore_DeletePinnedFails(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(MemoryStoreConfig{MaxSize: 10})

	require.NoError(t, s.Set(ctx, testEntry("aaaa")))
	require.NoError(t, s.SetPinned(ctx, "aaaa", true))

	err := s.Delete(ctx, "aaaa")
	require.Error(t, err)
	assert.Equal(t, types.KindCache, types.KindOf(err))

	require.NoError(t, s.SetPinned(ctx, "aaaa", false))
	require.NoError(t, s.Delete(ctx, "aaaa"))
	_, ok, _ := s.Peek(ctx, "aaaa")
	assert.False(t, ok)
}

func TestMemoryStore_ClearKeepsPinned(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(MemoryStoreConfig{MaxSize: 10})

	require.NoError(t, s.Set(ctx, testEntry("keep")))
	require.NoError(t, s.SetPinned(ctx, "keep", true))
	require.NoError(t, s.Set(ctx, testEntry("drop")))

	require.NoError(t, s.Clear(ctx))

	_, ok, _ := s.Peek(ctx, "keep")
	assert.True(t, ok)
	_, ok, _ = s.Peek(ctx, "drop")
	assert.False(t, ok)
}

func TestMemoryStore_PeekDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(MemoryStoreConfig{MaxSize: 10})
	require.NoError(t, s.Set(ctx, testEntry("aaaa")))

	for i := 0; i < 3; i++ {
		entry, ok, err := s.Peek(ctx, "aaaa")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Zero(t, entry.HitCount)
		assert.Empty(t, entry.ExampleQueries)
	}
}

func TestMemoryStore_ExampleQueriesBounded(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(MemoryStoreConfig{MaxSize: 10})
	require.NoError(t, s.Set(ctx, testEntry("aaaa")))

	for i := 0; i < types.MaxExampleQueries+5; i++ {
		_, _, err := s.Get(ctx, "aaaa", fmt.Sprintf("phrasing %d", i))
		require.NoError(t, err)
	}

	entry, _, err := s.Get(ctx, "aaaa", "")
	require.NoError(t, err)
	assert.Len(t, entry.ExampleQueries, types.MaxExampleQueries)
	// The oldest phrasings rolled off.
	assert.Equal(t, "phrasing 5", entry.ExampleQueries[0])
}
