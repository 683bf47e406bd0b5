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
	"sync/atomic"
)

// CostConfig carries the per-layer dollar costs used for savings
// estimation. These are configuration, never hard-coded at call sites.
type CostConfig struct {
	// L1Hit is the cost of serving from the exact cache. Default: $0
	L1Hit float64

	// Embed is the cost of one embedding call (the L2 price). Default: $0.0001
	Embed float64

	// Generate is the cost of one LLM generation (the L3 price). Default: $0.01
	Generate float64
}

// DefaultCostConfig returns the standard cost assumptions.
func DefaultCostConfig() CostConfig {
	return CostConfig{
		L1Hit:    0,
		Embed:    0.0001,
		Generate: 0.01,
	}
}

// Stats holds the cache counters. Increments are atomic; exact consistency
// with the underlying stores is not required.
type Stats struct {
	l1Hits   atomic.Int64
	l1Misses atomic.Int64
	l2Hits   atomic.Int64
	l2Misses atomic.Int64
	l3Calls  atomic.Int64
}

// NewStats creates zeroed counters.
func NewStats() *Stats {
	return &Stats{}
}

// RecordL1Hit counts an exact-cache hit.
func (s *Stats) RecordL1Hit() { s.l1Hits.Add(1) }

// RecordL1Miss counts an exact-cache miss.
func (s *Stats) RecordL1Miss() { s.l1Misses.Add(1) }

// RecordL2Hit counts a semantic-cache hit.
func (s *Stats) RecordL2Hit() { s.l2Hits.Add(1) }

// RecordL2Miss counts a semantic-cache miss.
func (s *Stats) RecordL2Miss() { s.l2Misses.Add(1) }

// RecordL3Call counts a generative resolution.
func (s *Stats) RecordL3Call() { s.l3Calls.Add(1) }

// LayerReport is one layer's slice of the report.
type LayerReport struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Report is a point-in-time statistics snapshot.
type Report struct {
	L1 LayerReport `json:"l1"`
	L2 LayerReport `json:"l2"`
	L3 struct {
		Calls int64 `json:"calls"`
	} `json:"l3"`
	TotalQueries int64 `json:"total_queries"`

	// EstimatedCostSaved = hitsL1*c1 + hitsL2*(c3-c2), with the layer
	// costs taken from configuration.
	EstimatedCostSaved float64 `json:"estimated_cost_saved"`
}

// Snapshot renders the counters into a report. Sizes come from the stores
// and are passed in by the coordinator.
func (s *Stats) Snapshot(l1Size, l2Size int, costs CostConfig) Report {
	l1h, l1m := s.l1Hits.Load(), s.l1Misses.Load()
	l2h, l2m := s.l2Hits.Load(), s.l2Misses.Load()
	l3 := s.l3Calls.Load()

	var r Report
	r.L1 = LayerReport{Size: l1Size, Hits: l1h, Misses: l1m, HitRate: rate(l1h, l1m)}
	r.L2 = LayerReport{Size: l2Size, Hits: l2h, Misses: l2m, HitRate: rate(l2h, l2m)}
	r.L3.Calls = l3
	r.TotalQueries = l1h + l2h + l3
	r.EstimatedCostSaved = float64(l1h)*costs.L1Hit + float64(l2h)*(costs.Generate-costs.Embed)
	return r
}

func rate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
