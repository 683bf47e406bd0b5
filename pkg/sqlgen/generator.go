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

// Package sqlgen turns canonical intents into executed, read-only,
// parameterized SQL. Generation failures are repaired in an error-driven
// retry loop; SQL that fails safety validation is never executed.
package sqlgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/teradata-labs/strata/pkg/llm"
	"github.com/teradata-labs/strata/pkg/types"
)

// DefaultMaxAttempts bounds the generate-validate-execute loop.
const DefaultMaxAttempts = 3

// Executor runs parameterized read queries. *db.DB satisfies this; tests
// substitute fakes.
type Executor interface {
	Query(ctx context.Context, sql string, params []any) ([]types.Row, error)
	DialectName() string
	DescribeSchema() string
}

// Generation is the outcome of a successful generate-and-execute.
type Generation struct {
	SQL          string
	Params       []any
	Rows         []types.Row
	Attempts     int
	ResultSchema map[string]types.ColumnType
}

// Generator produces and executes SQL for intents.
type Generator struct {
	gen         llm.Generator
	exec        Executor
	maxAttempts int
	logger      *zap.Logger
	schema      *gojsonschema.Schema
}

// GeneratorConfig configures the SQL generator.
type GeneratorConfig struct {
	// Generator produces the structured {sql, params} output
	Generator llm.Generator

	// Executor runs the generated SQL
	Executor Executor

	// MaxAttempts bounds correction retries. Default: 3
	MaxAttempts int

	// Logger for generation events
	Logger *zap.Logger
}

// NewGenerator creates a SQL generator.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("sql generator requires an LLM generator")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("sql generator requires an executor")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(sqlOutputSchema()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile sql output schema: %w", err)
	}

	return &Generator{
		gen:         cfg.Generator,
		exec:        cfg.Executor,
		maxAttempts: cfg.MaxAttempts,
		logger:      cfg.Logger,
		schema:      compiled,
	}, nil
}

// sqlOutput is the raw LLM output shape.
type sqlOutput struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// Generate produces validated SQL for the intent without executing it.
// Used by Explain on cache misses.
func (g *Generator) Generate(ctx context.Context, in types.Intent) (string, []any, error) {
	out, err := g.generateOnce(ctx, in, "", nil)
	if err != nil {
		return "", nil, err
	}
	return out.SQL, out.Params, nil
}

// GenerateAndExecute runs the attempt loop: generate, validate, execute.
// A driver rejection feeds the next attempt's correction prompt; safety
// rejections count as failed attempts too. The final error is surfaced
// when every attempt is exhausted.
func (g *Generator) GenerateAndExecute(ctx context.Context, in types.Intent) (*Generation, error) {
	var (
		failedSQL string
		lastErr   error
	)

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, types.NewSQLGenerationError("generation canceled", err)
		}

		out, err := g.generateOnce(ctx, in, failedSQL, lastErr)
		if err != nil {
			// Transport exhaustion is not repairable by re-prompting.
			if types.IsKind(err, types.KindLLM) {
				return nil, err
			}
			lastErr = err
			g.logger.Warn("sql generation attempt rejected",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		rows, err := g.exec.Query(ctx, out.SQL, out.Params)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			failedSQL = out.SQL
			lastErr = err
			g.logger.Warn("generated sql failed execution, retrying with correction prompt",
				zap.Int("attempt", attempt),
				zap.String("sql", out.SQL),
				zap.Error(err))
			continue
		}

		return &Generation{
			SQL:          out.SQL,
			Params:       out.Params,
			Rows:         rows,
			Attempts:     attempt,
			ResultSchema: InferResultSchema(rows),
		}, nil
	}

	if types.KindOf(lastErr) != "" {
		return nil, lastErr
	}
	return nil, types.NewSQLGenerationError(
		fmt.Sprintf("no valid SQL after %d attempts", g.maxAttempts), lastErr).
		WithSQL(failedSQL)
}

// generateOnce performs one LLM call plus schema and safety validation.
func (g *Generator) generateOnce(ctx context.Context, in types.Intent, failedSQL string, failedErr error) (*sqlOutput, error) {
	system := buildSystemPrompt(g.exec.DialectName(), g.exec.DescribeSchema(), failedSQL, failedErr)
	user := buildUserPrompt(in)

	raw, err := g.gen.GenerateStructured(ctx, system, user, sqlOutputSchema())
	if err != nil {
		return nil, err
	}

	result, err := g.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, types.NewSQLGenerationError("sql output validation failed", err)
	}
	if !result.Valid() {
		return nil, types.NewSQLGenerationError(
			fmt.Sprintf("sql output does not match schema: %v", result.Errors()), nil)
	}

	var out sqlOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, types.NewSQLGenerationError("failed to unmarshal sql output", err)
	}
	if out.Params == nil {
		out.Params = []any{}
	}

	if err := ValidateSQL(out.SQL, out.Params); err != nil {
		return nil, err
	}
	return &out, nil
}
