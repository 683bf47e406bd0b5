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

// Package engine is the tiered cache coordinator. One Resolve call walks
// L1 (exact fingerprint), L2 (semantic similarity) and L3 (LLM generation)
// in order, promoting semantic hits into the exact tier and populating
// both tiers on generation.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/teradata-labs/strata/pkg/cache"
	"github.com/teradata-labs/strata/pkg/sqlgen"
	"github.com/teradata-labs/strata/pkg/types"
)

// Parser is the intent-parsing capability the coordinator needs.
// *intent.Parser satisfies this; tests substitute fakes.
type Parser interface {
	Parse(ctx context.Context, text string) (types.Intent, error)
	SchemaDescription() string
}

// ResolveOptions control cache behavior for one Resolve call. The zero
// value is the default: caches on, no forced regeneration.
type ResolveOptions struct {
	// BypassCache skips the L1 and L2 reads (use_cache=false)
	BypassCache bool

	// ForceNewSchema skips all cache reads and regenerates; the caches
	// are still populated on success
	ForceNewSchema bool
}

// Meta describes how a query was resolved.
type Meta struct {
	// Layer is 1 (exact), 2 (semantic) or 3 (generated)
	Layer int `json:"layer"`

	// Cost is the estimated dollar cost of serving this call
	Cost float64 `json:"cost"`

	// LatencyMs is the observed wall time
	LatencyMs int64 `json:"latency_ms"`

	// Similarity is the cosine score, set only for layer 2
	Similarity float64 `json:"similarity,omitempty"`

	// Attempts is the generation attempt count, set only for layer 3
	Attempts int `json:"attempts,omitempty"`
}

// Result is the outcome of one resolved query.
type Result struct {
	Query       string       `json:"query"`
	Data        []types.Row  `json:"data"`
	Fingerprint string       `json:"fingerprint"`
	CacheHit    bool         `json:"cache_hit"`
	SQL         string       `json:"sql"`
	Params      []any        `json:"params"`
	Intent      types.Intent `json:"intent"`
	Meta        Meta         `json:"meta"`
}

// Explanation is the outcome of Explain: the parsed intent plus the SQL
// that would run, without executing it.
type Explanation struct {
	Intent      types.Intent       `json:"intent"`
	SQL         string             `json:"sql"`
	Params      []any              `json:"params"`
	Fingerprint string             `json:"fingerprint"`
	CachedEntry *types.CachedEntry `json:"cached_entry,omitempty"`
}

// Config wires the coordinator's collaborators. L1 and L2 are optional;
// with neither the engine degrades to a pure generative path.
type Config struct {
	// Parser produces canonical intents
	Parser Parser

	// Executor runs SQL (cached and fresh)
	Executor sqlgen.Executor

	// Generator is the L3 generate-and-execute pipeline
	Generator *sqlgen.Generator

	// L1 is the exact cache (nil = disabled)
	L1 cache.Store

	// L2 is the semantic cache (nil = disabled)
	L2 *cache.SemanticStore

	// Costs are the per-layer dollar estimates
	Costs cache.CostConfig

	// Closers are closed with the engine (database, redis client)
	Closers []io.Closer

	// Logger for resolution events
	Logger *zap.Logger
}

// Engine is the tiered cache coordinator. Safe for concurrent callers.
type Engine struct {
	parser    Parser
	exec      sqlgen.Executor
	generator *sqlgen.Generator
	l1        cache.Store
	l2        *cache.SemanticStore
	stats     *cache.Stats
	costs     cache.CostConfig
	group     singleflight.Group
	closers   []io.Closer
	logger    *zap.Logger
	now       func() time.Time
}

// New creates the coordinator.
func New(cfg Config) (*Engine, error) {
	if cfg.Parser == nil {
		return nil, fmt.Errorf("engine requires an intent parser")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("engine requires an executor")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("engine requires a sql generator")
	}
	if cfg.Costs == (cache.CostConfig{}) {
		cfg.Costs = cache.DefaultCostConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Engine{
		parser:    cfg.Parser,
		exec:      cfg.Executor,
		generator: cfg.Generator,
		l1:        cfg.L1,
		l2:        cfg.L2,
		stats:     cache.NewStats(),
		costs:     cfg.Costs,
		closers:   cfg.Closers,
		logger:    cfg.Logger,
		now:       time.Now,
	}, nil
}

// Resolve turns a natural-language query into rows, walking the tiers in
// order. Execution errors on cached SQL are terminal: SQL that no longer
// runs against the schema is a real error, not a cache miss.
func (e *Engine) Resolve(ctx context.Context, query string, opts ResolveOptions) (*Result, error) {
	start := e.now()
	reqLog := e.logger.With(zap.String("request_id", uuid.NewString()))

	in, err := e.parser.Parse(ctx, query)
	if err != nil {
		return nil, err
	}
	fingerprint := fingerprintOf(in)
	reqLog = reqLog.With(zap.String("fingerprint", fingerprint))

	readCache := !opts.BypassCache && !opts.ForceNewSchema

	// L1: exact fingerprint match.
	if readCache && e.l1 != nil {
		entry, ok, err := e.l1.Get(ctx, fingerprint, query)
		if err != nil {
			return nil, err
		}
		if ok {
			rows, err := e.exec.Query(ctx, entry.SQL, entry.Params)
			if err != nil {
				return nil, err
			}
			e.stats.RecordL1Hit()
			reqLog.Debug("resolved from exact cache")
			return e.result(query, in, fingerprint, entry.SQL, entry.Params, rows, Meta{
				Layer:     1,
				Cost:      e.costs.L1Hit,
				LatencyMs: e.sinceMs(start),
			}), nil
		}
		e.stats.RecordL1Miss()
	}

	// L2: semantic match. The embedding is computed at most once per
	// Resolve and reused by the L3 populate path.
	var embedding []float32
	if readCache && e.l2 != nil {
		match, emb, err := e.l2.Find(ctx, query)
		if err != nil {
			return nil, err
		}
		embedding = emb
		if match != nil {
			rows, err := e.exec.Query(ctx, match.Entry.SQL, match.Entry.Params)
			if err != nil {
				return nil, err
			}
			e.stats.RecordL2Hit()
			e.promote(ctx, reqLog, fingerprint, query, match)
			reqLog.Debug("resolved from semantic cache",
				zap.Float64("similarity", match.Similarity))
			return e.result(query, in, fingerprint, match.Entry.SQL, match.Entry.Params, rows, Meta{
				Layer:      2,
				Cost:       e.costs.Embed,
				LatencyMs:  e.sinceMs(start),
				Similarity: match.Similarity,
			}), nil
		}
		e.stats.RecordL2Miss()
	}

	// L3: generate. Concurrent duplicates of the same fingerprint share
	// one generation.
	v, err, _ := e.group.Do(fingerprint, func() (any, error) {
		return e.generate(ctx, reqLog, in, fingerprint, query, embedding)
	})
	if err != nil {
		return nil, err
	}
	gen := v.(*sqlgen.Generation)

	return e.result(query, in, fingerprint, gen.SQL, gen.Params, gen.Rows, Meta{
		Layer:     3,
		Cost:      e.costs.Generate,
		LatencyMs: e.sinceMs(start),
		Attempts:  gen.Attempts,
	}), nil
}

// generate runs the L3 pipeline and populates both cache tiers. A
// cancellation or failure inside generation leaves the caches unmodified.
func (e *Engine) generate(ctx context.Context, reqLog *zap.Logger, in types.Intent, fingerprint, query string, embedding []float32) (*sqlgen.Generation, error) {
	gen, err := e.generator.GenerateAndExecute(ctx, in)
	if err != nil {
		return nil, err
	}
	e.stats.RecordL3Call()

	now := e.now()
	entry := &types.CachedEntry{
		Fingerprint:    fingerprint,
		SQL:            gen.SQL,
		Params:         gen.Params,
		IntentPattern:  in.NormalizedText,
		CreatedAt:      now,
		LastUsedAt:     now,
		HitCount:       1,
		ExampleQueries: []string{query},
		ResultSchema:   gen.ResultSchema,
	}

	if e.l1 != nil {
		if err := e.l1.Set(ctx, entry); err != nil {
			reqLog.Warn("failed to populate exact cache", zap.Error(err))
		}
	}
	if e.l2 != nil {
		// Reuse the lookup's embedding; only the cache-disabled path
		// pays for a fresh one here.
		var addErr error
		if embedding != nil {
			addErr = e.l2.AddWithEmbedding(ctx, query, embedding, entry)
		} else {
			addErr = e.l2.Add(ctx, query, entry)
		}
		if addErr != nil {
			reqLog.Warn("failed to populate semantic cache", zap.Error(addErr))
		}
	}

	reqLog.Debug("resolved via generation", zap.Int("attempts", gen.Attempts))
	return gen, nil
}

// promote writes an L2 match into L1 under the current query's
// fingerprint, so exact re-phrasings of this query short-circuit at L1.
// If the matched entry's own fingerprint fell out of L1, it is
// resurrected there as well.
func (e *Engine) promote(ctx context.Context, reqLog *zap.Logger, fingerprint, query string, match *cache.SemanticMatch) {
	if e.l1 == nil {
		return
	}

	promoted := match.Entry.Clone()
	promoted.Fingerprint = fingerprint
	promoted.AddExample(query)
	if err := e.l1.Set(ctx, promoted); err != nil {
		reqLog.Warn("failed to promote semantic hit", zap.Error(err))
	}

	if match.Entry.Fingerprint == fingerprint {
		return
	}
	if _, ok, _ := e.l1.Peek(ctx, match.Entry.Fingerprint); !ok {
		if err := e.l1.Set(ctx, match.Entry.Clone()); err != nil {
			reqLog.Warn("failed to resurrect semantic entry", zap.Error(err))
		}
	}
}

func (e *Engine) result(query string, in types.Intent, fingerprint, sql string, params []any, rows []types.Row, meta Meta) *Result {
	return &Result{
		Query:       query,
		Data:        rows,
		Fingerprint: fingerprint,
		CacheHit:    meta.Layer != 3,
		SQL:         sql,
		Params:      params,
		Intent:      in,
		Meta:        meta,
	}
}

func (e *Engine) sinceMs(start time.Time) int64 {
	return e.now().Sub(start).Milliseconds()
}

// Explain parses the query and reports the SQL that would run. A cached
// fingerprint returns the cached SQL; otherwise SQL is generated without
// being executed.
func (e *Engine) Explain(ctx context.Context, query string) (*Explanation, error) {
	in, err := e.parser.Parse(ctx, query)
	if err != nil {
		return nil, err
	}
	fingerprint := fingerprintOf(in)

	if e.l1 != nil {
		if entry, ok, err := e.l1.Peek(ctx, fingerprint); err == nil && ok {
			return &Explanation{
				Intent:      in,
				SQL:         entry.SQL,
				Params:      entry.Params,
				Fingerprint: fingerprint,
				CachedEntry: entry,
			}, nil
		}
	}

	sql, params, err := e.generator.Generate(ctx, in)
	if err != nil {
		return nil, err
	}
	return &Explanation{
		Intent:      in,
		SQL:         sql,
		Params:      params,
		Fingerprint: fingerprint,
	}, nil
}

// Close drains nothing exotic: it closes the wired backends. In-memory
// caches are lost by design.
func (e *Engine) Close() error {
	var firstErr error
	if e.l1 != nil {
		if err := e.l1.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, c := range e.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
