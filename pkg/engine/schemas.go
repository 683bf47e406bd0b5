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

package engine

import (
	"context"

	"github.com/teradata-labs/strata/pkg/cache"
	"github.com/teradata-labs/strata/pkg/intent"
	"github.com/teradata-labs/strata/pkg/types"
)

// fingerprintOf hashes a normalized intent into its cache identity.
func fingerprintOf(in types.Intent) string {
	return intent.Fingerprint(in)
}

// ListSchemas returns every cached query schema in the exact tier.
func (e *Engine) ListSchemas(ctx context.Context) ([]*types.CachedEntry, error) {
	if e.l1 == nil {
		return nil, nil
	}
	return e.l1.List(ctx)
}

// GetSchema returns one cached entry by fingerprint without touching LRU
// order or hit counters.
func (e *Engine) GetSchema(ctx context.Context, fingerprint string) (*types.CachedEntry, error) {
	if e.l1 == nil {
		return nil, types.NewCacheError("exact cache is disabled", nil)
	}
	entry, ok, err := e.l1.Peek(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.NewCacheError("no entry for fingerprint "+fingerprint, nil)
	}
	return entry, nil
}

// DeleteSchema removes a cached entry from both tiers. Pinned entries
// refuse deletion.
func (e *Engine) DeleteSchema(ctx context.Context, fingerprint string) error {
	if e.l1 != nil {
		if err := e.l1.Delete(ctx, fingerprint); err != nil {
			return err
		}
	}
	if e.l2 != nil {
		return e.l2.Delete(ctx, fingerprint)
	}
	return nil
}

// PinSchema protects a cached entry from eviction and deletion.
func (e *Engine) PinSchema(ctx context.Context, fingerprint string) error {
	return e.setPinned(ctx, fingerprint, true)
}

// UnpinSchema lifts the eviction protection.
func (e *Engine) UnpinSchema(ctx context.Context, fingerprint string) error {
	return e.setPinned(ctx, fingerprint, false)
}

func (e *Engine) setPinned(ctx context.Context, fingerprint string, pinned bool) error {
	if e.l1 == nil {
		return types.NewCacheError("exact cache is disabled", nil)
	}
	if err := e.l1.SetPinned(ctx, fingerprint, pinned); err != nil {
		return err
	}
	if e.l2 != nil {
		// The semantic tier mirrors the pin when it holds the entry.
		return e.l2.SetPinned(ctx, fingerprint, pinned)
	}
	return nil
}

// CacheStats snapshots the per-layer counters, sizes and estimated
// savings. Counters are atomic; sizes are read from the stores and may
// lag by in-flight operations.
func (e *Engine) CacheStats(ctx context.Context) cache.Report {
	var l1Size, l2Size int
	if e.l1 != nil {
		l1Size, _ = e.l1.Len(ctx)
	}
	if e.l2 != nil {
		l2Size, _ = e.l2.Len(ctx)
	}
	return e.stats.Snapshot(l1Size, l2Size, e.costs)
}
