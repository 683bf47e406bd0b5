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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/strata/pkg/types"
)

func TestValidateSQL_AcceptsReadQueries(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		params []any
	}{
		{"plain select", "SELECT * FROM users", nil},
		{"select with params", "SELECT * FROM users WHERE status = ? AND age > ?", []any{"active", 21}},
		{"leading whitespace", "   \n SELECT 1", nil},
		{"cte", "WITH recent AS (SELECT * FROM orders WHERE total > ?) SELECT * FROM recent", []any{100}},
		{"lowercase", "select id from users where name = ?", []any{"x"}},
		{"column named created", "SELECT created_at FROM users", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, ValidateSQL(tt.sql, tt.params))
		})
	}
}

func TestValidateSQL_RejectsForbiddenKeywords(t *testing.T) {
	tests := []string{
		"DROP TABLE users; SELECT 1",
		"SELECT 1; DELETE FROM users",
		"UPDATE users SET admin = 1",
		"INSERT INTO users VALUES (1)",
		"WITH x AS (SELECT 1) INSERT INTO users SELECT * FROM x",
		"select * from users; pragma writable_schema = on",
		"TRUNCATE TABLE users",
		"SELECT * FROM users; ATTACH DATABASE 'evil' AS e",
	}
	for _, sql := range tests {
		t.Run(sql, func(t *testing.T) {
			err := ValidateSQL(sql, nil)
			require.Error(t, err)
			assert.Equal(t, types.KindSQLGeneration, types.KindOf(err))
		})
	}
}

func TestValidateSQL_KeywordMatchingIsWholeWord(t *testing.T) {
	// Identifiers that merely contain a forbidden verb must pass.
	assert.NoError(t, ValidateSQL("SELECT last_update, created, dropped_reason FROM audit", nil))
	assert.NoError(t, ValidateSQL("SELECT * FROM updates", nil))
}

func TestValidateSQL_MustStartWithSelectOrWith(t *testing.T) {
	err := ValidateSQL("EXPLAIN SELECT 1", nil)
	require.Error(t, err)
	assert.Equal(t, types.KindSQLGeneration, types.KindOf(err))

	err = ValidateSQL("", nil)
	require.Error(t, err)
}

func TestValidateSQL_ParamCountMismatch(t *testing.T) {
	err := ValidateSQL("SELECT * FROM users WHERE a = ? AND b = ?", []any{"only one"})
	require.Error(t, err)
	assert.Equal(t, types.KindSQLGeneration, types.KindOf(err))

	err = ValidateSQL("SELECT * FROM users", []any{"stray"})
	require.Error(t, err)
}

func TestCountPlaceholders(t *testing.T) {
	tests := []struct {
		sql  string
		want int
	}{
		{"SELECT 1", 0},
		{"SELECT * FROM t WHERE a = ? AND b = ?", 2},
		{"SELECT * FROM t WHERE note = 'what?'", 0},
		{"SELECT * FROM t WHERE note = 'it''s a ?' AND a = ?", 1},
		{"SELECT '?' , ?", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CountPlaceholders(tt.sql), tt.sql)
	}
}

func TestInferResultSchema(t *testing.T) {
	rows := []types.Row{{
		"id":         int64(7),
		"name":       "ada",
		"balance":    12.5,
		"whole":      float64(3),
		"active":     true,
		"deleted_at": nil,
		"created_at": "2026-07-30T12:00:00Z",
		"tags":       []any{"a"},
		"meta":       map[string]any{"k": "v"},
	}}

	schema := InferResultSchema(rows)
	assert.Equal(t, "integer", schema["id"].Type)
	assert.Equal(t, "string", schema["name"].Type)
	assert.Equal(t, "number", schema["balance"].Type)
	assert.Equal(t, "integer", schema["whole"].Type)
	assert.Equal(t, "boolean", schema["active"].Type)
	assert.Equal(t, "null", schema["deleted_at"].Type)
	assert.Equal(t, "string", schema["created_at"].Type)
	assert.Equal(t, "date", schema["created_at"].Hint)
	assert.Equal(t, "array", schema["tags"].Type)
	assert.Equal(t, "object", schema["meta"].Type)

	assert.Nil(t, InferResultSchema(nil))
}
