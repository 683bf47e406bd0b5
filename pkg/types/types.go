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

// Package types contains shared types used across the strata engine.
// This package breaks import cycles by providing common types that
// pkg/intent, pkg/cache, pkg/sqlgen and pkg/engine all depend on.
package types

import (
	"time"
)

// Row is a single result row keyed by column name. Values are restricted
// to the JSON primitive set: nil, bool, int64, float64, string, []any,
// map[string]any. The db layer normalizes driver containers into this shape.
type Row = map[string]any

// Operation is the canonical query operation extracted from natural language.
type Operation string

const (
	OperationList      Operation = "list"
	OperationCount     Operation = "count"
	OperationAggregate Operation = "aggregate"
	OperationFilter    Operation = "filter"
)

// ValidOperation reports whether op is one of the four canonical operations.
func ValidOperation(op string) bool {
	switch Operation(op) {
	case OperationList, OperationCount, OperationAggregate, OperationFilter:
		return true
	}
	return false
}

// Intent is the canonical structured representation of a natural-language
// query. Two phrasings of the same logical request normalize to the same
// Intent and therefore the same fingerprint.
type Intent struct {
	// Entity is the target table name, validated against the introspected schema
	Entity string `json:"entity"`

	// Operation is one of list, count, aggregate, filter
	Operation string `json:"operation"`

	// Filters maps lowercased field names to primitive or list values.
	// Insertion order is irrelevant; normalization sorts by key.
	Filters map[string]any `json:"filters"`

	// Limit is an optional positive row cap (0 = absent)
	Limit int `json:"limit,omitempty"`

	// Fields is an optional projection of column names
	Fields []string `json:"fields,omitempty"`

	// Sort is an optional "field:asc" / "field:desc" specifier
	Sort string `json:"sort,omitempty"`

	// NormalizedText is the canonical pipe-delimited rendering of the
	// intent. It is the sole input to the fingerprint.
	NormalizedText string `json:"normalized_text"`
}

// ColumnType describes the inferred JSON shape of one result column.
type ColumnType struct {
	// Type is one of null, boolean, integer, number, string, array, object
	Type string `json:"type"`

	// Hint carries extra classification, currently only "date" for
	// ISO-8601-looking strings
	Hint string `json:"hint,omitempty"`
}

// MaxExampleQueries bounds the example_queries ring on a cache entry.
const MaxExampleQueries = 10

// CachedEntry is the shared cache record across L1 and L2. The fingerprint
// is the 16-hex-char SHA-256 prefix of the intent's normalized text.
type CachedEntry struct {
	Fingerprint    string                `json:"fingerprint"`
	SQL            string                `json:"sql"`
	Params         []any                 `json:"params"`
	IntentPattern  string                `json:"intent_pattern"`
	CreatedAt      time.Time             `json:"created_at"`
	LastUsedAt     time.Time             `json:"last_used_at"`
	HitCount       int64                 `json:"hit_count"`
	Pinned         bool                  `json:"pinned"`
	ExampleQueries []string              `json:"example_queries,omitempty"`
	ResultSchema   map[string]ColumnType `json:"result_schema,omitempty"`
}

// Clone returns a deep copy. Stores hand out clones so callers cannot
// mutate cached state behind the store's lock.
func (e *CachedEntry) Clone() *CachedEntry {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Params = append([]any(nil), e.Params...)
	cp.ExampleQueries = append([]string(nil), e.ExampleQueries...)
	if e.ResultSchema != nil {
		cp.ResultSchema = make(map[string]ColumnType, len(e.ResultSchema))
		for k, v := range e.ResultSchema {
			cp.ResultSchema[k] = v
		}
	}
	return &cp
}

// RecordHit bumps the hit counter and last-used timestamp.
func (e *CachedEntry) RecordHit(now time.Time) {
	e.HitCount++
	e.LastUsedAt = now
}

// AddExample records a natural-language phrasing that resolved to this
// entry, keeping the last MaxExampleQueries distinct strings.
func (e *CachedEntry) AddExample(query string) {
	for _, q := range e.ExampleQueries {
		if q == query {
			return
		}
	}
	e.ExampleQueries = append(e.ExampleQueries, query)
	if n := len(e.ExampleQueries); n > MaxExampleQueries {
		e.ExampleQueries = e.ExampleQueries[n-MaxExampleQueries:]
	}
}
