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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Snapshot(t *testing.T) {
	s := NewStats()
	for i := 0; i < 6; i++ {
		s.RecordL1Hit()
	}
	for i := 0; i < 4; i++ {
		s.RecordL1Miss()
	}
	for i := 0; i < 3; i++ {
		s.RecordL2Hit()
	}
	s.RecordL2Miss()
	for i := 0; i < 2; i++ {
		s.RecordL3Call()
	}

	r := s.Snapshot(10, 5, DefaultCostConfig())

	assert.Equal(t, int64(6), r.L1.Hits)
	assert.Equal(t, int64(4), r.L1.Misses)
	assert.InDelta(t, 0.6, r.L1.HitRate, 1e-9)
	assert.Equal(t, int64(3), r.L2.Hits)
	assert.InDelta(t, 0.75, r.L2.HitRate, 1e-9)
	assert.Equal(t, int64(2), r.L3.Calls)
	assert.Equal(t, 10, r.L1.Size)
	assert.Equal(t, 5, r.L2.Size)

	// totalQueries = hitsL1 + hitsL2 + callsL3
	assert.Equal(t, int64(11), r.TotalQueries)

	// estimatedCostSaved = hitsL1*c1 + hitsL2*(c3-c2)
	assert.InDelta(t, 6*0.0+3*(0.01-0.0001), r.EstimatedCostSaved, 1e-9)
}

func TestStats_EmptySnapshot(t *testing.T) {
	r := NewStats().Snapshot(0, 0, DefaultCostConfig())
	assert.Zero(t, r.TotalQueries)
	assert.Zero(t, r.L1.HitRate)
	assert.Zero(t, r.EstimatedCostSaved)
}
