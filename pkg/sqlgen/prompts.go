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

package sqlgen

import (
	"encoding/json"
	"fmt"

	"github.com/teradata-labs/strata/pkg/types"
)

// generationSystemPrompt is templated with the dialect name and the
// rendered schema. Dialect idioms are encoded here; the generator never
// rewrites SQL after the fact.
const generationSystemPrompt = `You are a SQL generation tool for a %[1]s database.
Given a structured query intent, produce ONE parameterized %[1]s SELECT statement.

%[2]s

Rules:
- Generate ONLY read queries: the statement must start with SELECT or WITH
- Use ? for every parameter placeholder; list the parameter values in order in "params"
- Never inline user-supplied values into the SQL text
- Never use UPDATE, DELETE, DROP, ALTER, INSERT, CREATE, TRUNCATE, REPLACE, PRAGMA, ATTACH or DETACH
- For text filters use case-insensitive fuzzy matching: UPPER(column) LIKE UPPER(?)
  with the parameter wrapped in %% wildcards
- For "count" operations produce SELECT COUNT(*) AS count
- Respect the intent's limit, fields and sort when present
- Only reference tables and columns that exist in the schema above`

// correctionSystemPrompt primes a retry attempt with the failed SQL and
// the driver's error so the model can repair it. The retry depends on the
// intent plus the error history, nothing else.
const correctionSystemPrompt = generationSystemPrompt + `

Your previous attempt failed.
Failed SQL: %[3]s
Database error: %[4]s

Produce a corrected query that still follows every rule above.`

// sqlOutputSchema constrains generation output to {sql, params}.
func sqlOutputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sql": map[string]any{
				"type":        "string",
				"description": "A single parameterized SELECT statement using ? placeholders",
			},
			"params": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": []any{"string", "number", "boolean", "null"},
				},
				"description": "Parameter values in placeholder order",
			},
		},
		"required":             []any{"sql", "params"},
		"additionalProperties": false,
	}
}

// buildSystemPrompt renders the generation prompt, switching to the
// correction variant when a previous attempt failed.
func buildSystemPrompt(dialect, schemaDescription, failedSQL string, failedErr error) string {
	if failedErr == nil {
		return fmt.Sprintf(generationSystemPrompt, dialect, schemaDescription)
	}
	return fmt.Sprintf(correctionSystemPrompt, dialect, schemaDescription, failedSQL, failedErr.Error())
}

// buildUserPrompt renders the intent as the user message.
func buildUserPrompt(in types.Intent) string {
	doc := map[string]any{
		"entity":    in.Entity,
		"operation": in.Operation,
		"filters":   in.Filters,
	}
	if in.Limit > 0 {
		doc["limit"] = in.Limit
	}
	if len(in.Fields) > 0 {
		doc["fields"] = in.Fields
	}
	if in.Sort != "" {
		doc["sort"] = in.Sort
	}
	raw, _ := json.Marshal(doc)
	return "Query intent:\n" + string(raw)
}
