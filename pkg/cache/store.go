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

// Package cache implements the three cache tiers of the strata engine:
// an exact fingerprint store (in-memory LRU or Redis-backed), a semantic
// vector store, and the shared statistics counters.
package cache

import (
	"context"

	"github.com/teradata-labs/strata/pkg/types"
)

// Store is the L1 exact-match cache capability. The coordinator holds one
// Store whatever the implementation; memory-vs-Redis is a constructor-time
// composition, not a runtime flag.
//
// Get is a write for locking purposes: it promotes the entry to MRU, bumps
// hit bookkeeping and records the example query. Peek does none of that.
// Both return defensive copies.
type Store interface {
	// Get returns the entry for fingerprint, recording the hit and the
	// triggering example query. ok is false on miss. An unreachable
	// backend degrades to a miss, not an error.
	Get(ctx context.Context, fingerprint, exampleQuery string) (entry *types.CachedEntry, ok bool, err error)

	// Peek returns the entry without mutating any cache state.
	Peek(ctx context.Context, fingerprint string) (entry *types.CachedEntry, ok bool, err error)

	// Set inserts or replaces the entry keyed by its fingerprint,
	// evicting if the store is full.
	Set(ctx context.Context, entry *types.CachedEntry) error

	// Delete removes the entry. Deleting a pinned entry fails with a
	// cache-kind error.
	Delete(ctx context.Context, fingerprint string) error

	// Clear removes all unpinned entries.
	Clear(ctx context.Context) error

	// List returns copies of all entries.
	List(ctx context.Context) ([]*types.CachedEntry, error)

	// Len returns the number of entries.
	Len(ctx context.Context) (int, error)

	// SetPinned flips the pin flag protecting an entry from eviction
	// and deletion.
	SetPinned(ctx context.Context, fingerprint string, pinned bool) error

	// Close releases any backend connections.
	Close() error
}
