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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/strata/pkg/types"
)

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisStoreConfig{URL: "not a url"})
	require.Error(t, err)
	assert.Equal(t, types.KindCache, types.KindOf(err))
}

func TestNewRedisStore_DegradesWhenUnreachable(t *testing.T) {
	ctx := context.Background()

	// Nothing listens on this port; the store must still construct and
	// treat the tier as empty rather than failing the engine.
	s, err := NewRedisStore(ctx, RedisStoreConfig{URL: "redis://127.0.0.1:1/0"})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, DefaultRedisKeyPrefix, s.prefix)
	assert.Equal(t, DefaultRedisTTL, s.ttl)

	_, ok, err := s.Get(ctx, "aaaa", "example")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Peek(ctx, "aaaa")
	require.NoError(t, err)
	assert.False(t, ok)

	// Writes degrade to logged no-ops.
	assert.NoError(t, s.Set(ctx, testEntry("aaaa")))
}
