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

// Package intent turns natural-language queries into canonical, fingerprintable
// intents. The LLM is used only for slot filling; schema validation and
// normalization are the firewall between model output and the cache.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/teradata-labs/strata/pkg/llm"
	"github.com/teradata-labs/strata/pkg/types"
)

// DefaultMaxQueryLength bounds the raw query text.
const DefaultMaxQueryLength = 500

// DefaultMaxAttempts is how many times in total the parser prompts the LLM,
// the first attempt included, while its output fails schema validation.
const DefaultMaxAttempts = 3

const systemPrompt = `You are a structured data extraction tool for a database query engine.
Your ONLY job is to extract a query intent from a natural language question about the database described below.

%s

Rules:
- "entity" must be one of the table names listed above
- "operation" is one of: list, count, aggregate, filter
- "filters" maps column names to the values the user is filtering on
- "limit" is a positive integer only when the user asks for a specific number of rows
- "fields" lists requested columns only when the user names specific columns
- "sort" is "column:asc" or "column:desc" only when the user asks for an ordering
- Omit optional fields you cannot determine from the input
- NEVER invent values not present in the input`

// ParserConfig configures the intent parser.
type ParserConfig struct {
	// Generator produces the structured extraction
	Generator llm.Generator

	// SchemaDescription is the rendered table/column/FK listing fed to prompts
	SchemaDescription string

	// Tables are the valid entity names from the introspected schema
	Tables []string

	// MaxQueryLength bounds raw input. Default: 500
	MaxQueryLength int

	// MaxAttempts bounds schema-validation retries. Default: 3
	MaxAttempts int

	// Logger for parse events
	Logger *zap.Logger
}

// Parser produces deterministic intents from free-form text.
type Parser struct {
	gen            llm.Generator
	schemaDesc     string
	tables         map[string]struct{}
	tableNames     []string
	maxQueryLength int
	maxAttempts    int
	logger         *zap.Logger
	schema         *gojsonschema.Schema
}

// NewParser creates a parser bound to one database schema snapshot.
func NewParser(cfg ParserConfig) (*Parser, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("intent parser requires a generator")
	}
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = DefaultMaxQueryLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	tables := make(map[string]struct{}, len(cfg.Tables))
	names := make([]string, 0, len(cfg.Tables))
	for _, t := range cfg.Tables {
		lower := strings.ToLower(strings.TrimSpace(t))
		tables[lower] = struct{}{}
		names = append(names, lower)
	}
	sort.Strings(names)

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(IntentSchema()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile intent schema: %w", err)
	}

	return &Parser{
		gen:            cfg.Generator,
		schemaDesc:     cfg.SchemaDescription,
		tables:         tables,
		tableNames:     names,
		maxQueryLength: cfg.MaxQueryLength,
		maxAttempts:    cfg.MaxAttempts,
		logger:         cfg.Logger,
		schema:         compiled,
	}, nil
}

// IntentSchema is the JSON Schema constraining LLM extraction output to
// the six intent fields.
func IntentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"entity": map[string]any{
				"type":        "string",
				"description": "Target table name",
			},
			"operation": map[string]any{
				"type": "string",
				"enum": []any{"list", "count", "aggregate", "filter"},
			},
			"filters": map[string]any{
				"type":        []any{"object", "null"},
				"description": "Column name to filter value",
			},
			"limit": map[string]any{
				"type":    []any{"integer", "null"},
				"minimum": 1,
			},
			"fields": map[string]any{
				"type":  []any{"array", "null"},
				"items": map[string]any{"type": "string"},
			},
			"sort": map[string]any{
				"type":        []any{"string", "null"},
				"description": "column:asc or column:desc",
			},
		},
		"required":             []any{"entity", "operation"},
		"additionalProperties": false,
	}
}

// wireIntent is the raw LLM output shape before normalization.
type wireIntent struct {
	Entity    string         `json:"entity"`
	Operation string         `json:"operation"`
	Filters   map[string]any `json:"filters"`
	Limit     *int           `json:"limit"`
	Fields    []string       `json:"fields"`
	Sort      *string        `json:"sort"`
}

// SchemaDescription returns the rendered schema text fed to prompts.
func (p *Parser) SchemaDescription() string {
	return p.schemaDesc
}

// Parse extracts, validates and normalizes the intent for text. Transport
// failures surface as llm-kind errors; output that stays schema-invalid
// after all attempts surfaces as an intent_parse error.
func (p *Parser) Parse(ctx context.Context, text string) (types.Intent, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return types.Intent{}, types.NewIntentParseError("query is empty", nil)
	}
	if len(trimmed) > p.maxQueryLength {
		return types.Intent{}, types.NewIntentParseError(
			fmt.Sprintf("query exceeds maximum length of %d characters", p.maxQueryLength), nil).
			WithSuggestions("shorten the query")
	}

	system := fmt.Sprintf(systemPrompt, p.schemaDesc)
	user := trimmed

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		raw, err := p.gen.GenerateStructured(ctx, system, user, IntentSchema())
		if err != nil {
			// Transport exhaustion keeps its llm error kind.
			return types.Intent{}, err
		}

		parsed, err := p.decode(raw)
		if err != nil {
			lastErr = err
			p.logger.Warn("intent extraction rejected",
				zap.Int("attempt", attempt),
				zap.Error(err))
			// Re-prompt with the validation failure appended so the model
			// can correct itself.
			user = fmt.Sprintf("%s\n\nYour previous output was invalid: %v. Respond again with a corrected JSON object.", trimmed, err)
			continue
		}
		return parsed, nil
	}

	return types.Intent{}, types.NewIntentParseError("could not extract a valid intent", lastErr).
		WithSuggestions("rephrase the query to name one of the known tables")
}

// decode validates raw output against the intent schema, checks entity and
// operation semantics, and normalizes.
func (p *Parser) decode(raw json.RawMessage) (types.Intent, error) {
	result, err := p.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return types.Intent{}, fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			msgs[i] = e.String()
		}
		return types.Intent{}, fmt.Errorf("output does not match intent schema: %s", strings.Join(msgs, "; "))
	}

	var wire wireIntent
	if err := json.Unmarshal(raw, &wire); err != nil {
		return types.Intent{}, fmt.Errorf("failed to unmarshal intent: %w", err)
	}

	in := types.Intent{
		Entity:    wire.Entity,
		Operation: wire.Operation,
		Filters:   wire.Filters,
		Fields:    wire.Fields,
	}
	if in.Filters == nil {
		in.Filters = map[string]any{}
	}
	if wire.Limit != nil {
		in.Limit = *wire.Limit
	}
	if wire.Sort != nil {
		in.Sort = *wire.Sort
	}

	in = Normalize(in)

	if !types.ValidOperation(in.Operation) {
		return types.Intent{}, fmt.Errorf("unknown operation %q", in.Operation)
	}
	if len(p.tables) > 0 {
		if _, ok := p.tables[in.Entity]; !ok {
			return types.Intent{}, fmt.Errorf("unknown table %q (known tables: %s)", in.Entity, strings.Join(p.tableNames, ", "))
		}
	}
	if in.Limit < 0 {
		return types.Intent{}, fmt.Errorf("limit must be positive, got %d", in.Limit)
	}

	return in, nil
}
