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
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/strata/pkg/types"
)

// scriptedGenerator returns canned {sql, params} documents in order and
// records the prompts it saw.
type scriptedGenerator struct {
	outputs []string
	systems []string
	calls   int
}

func (g *scriptedGenerator) GenerateStructured(_ context.Context, system, _ string, _ map[string]any) (json.RawMessage, error) {
	g.systems = append(g.systems, system)
	idx := g.calls
	if idx >= len(g.outputs) {
		idx = len(g.outputs) - 1
	}
	g.calls++
	return json.RawMessage(g.outputs[idx]), nil
}

func (g *scriptedGenerator) Name() string  { return "scripted" }
func (g *scriptedGenerator) Model() string { return "test" }

// fakeExecutor scripts per-SQL results and records executed statements.
type fakeExecutor struct {
	results  map[string][]types.Row
	failWith map[string]error
	executed []string
}

func (e *fakeExecutor) Query(_ context.Context, sql string, _ []any) ([]types.Row, error) {
	e.executed = append(e.executed, sql)
	if err, ok := e.failWith[sql]; ok {
		return nil, err
	}
	return e.results[sql], nil
}

func (e *fakeExecutor) DialectName() string    { return "SQLite" }
func (e *fakeExecutor) DescribeSchema() string { return "Table users:\n  id integer NOT NULL\n" }

func listUsersIntent() types.Intent {
	return types.Intent{
		Entity:         "users",
		Operation:      "filter",
		Filters:        map[string]any{"status": "active"},
		NormalizedText: "entity:users|operation:filter|filters:status=active",
	}
}

func TestGenerateAndExecute_FirstAttemptSucceeds(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{
		`{"sql": "SELECT * FROM users WHERE status = ?", "params": ["active"]}`,
	}}
	exec := &fakeExecutor{results: map[string][]types.Row{
		"SELECT * FROM users WHERE status = ?": {{"id": int64(1), "status": "active"}},
	}}
	g, err := NewGenerator(GeneratorConfig{Generator: gen, Executor: exec})
	require.NoError(t, err)

	out, err := g.GenerateAndExecute(context.Background(), listUsersIntent())
	require.NoError(t, err)

	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []any{"active"}, out.Params)
	assert.Len(t, out.Rows, 1)
	assert.Equal(t, "integer", out.ResultSchema["id"].Type)
}

func TestGenerateAndExecute_UnsafeSQLNeverExecuted(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{
		`{"sql": "DROP TABLE users; SELECT 1", "params": []}`,
	}}
	exec := &fakeExecutor{}
	g, err := NewGenerator(GeneratorConfig{Generator: gen, Executor: exec})
	require.NoError(t, err)

	_, err = g.GenerateAndExecute(context.Background(), listUsersIntent())
	require.Error(t, err)
	assert.Equal(t, types.KindSQLGeneration, types.KindOf(err))
	assert.Empty(t, exec.executed, "rejected SQL must never reach the database")
}

func TestGenerateAndExecute_CorrectionLoop(t *testing.T) {
	badSQL := "SELECT nonexistent FROM users"
	goodSQL := "SELECT id FROM users"
	gen := &scriptedGenerator{outputs: []string{
		fmt.Sprintf(`{"sql": %q, "params": []}`, badSQL),
		fmt.Sprintf(`{"sql": %q, "params": []}`, goodSQL),
	}}
	exec := &fakeExecutor{
		results:  map[string][]types.Row{goodSQL: {{"id": int64(1)}}},
		failWith: map[string]error{badSQL: fmt.Errorf("no such column: nonexistent")},
	}
	g, err := NewGenerator(GeneratorConfig{Generator: gen, Executor: exec})
	require.NoError(t, err)

	out, err := g.GenerateAndExecute(context.Background(), listUsersIntent())
	require.NoError(t, err)

	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, goodSQL, out.SQL)

	// The second prompt carries the failed SQL and the driver error.
	require.Len(t, gen.systems, 2)
	assert.Contains(t, gen.systems[1], badSQL)
	assert.Contains(t, gen.systems[1], "no such column")
	assert.NotContains(t, gen.systems[0], "previous attempt")
}

func TestGenerateAndExecute_AllAttemptsExhausted(t *testing.T) {
	badSQL := "SELECT nonexistent FROM users"
	gen := &scriptedGenerator{outputs: []string{
		fmt.Sprintf(`{"sql": %q, "params": []}`, badSQL),
	}}
	execErr := fmt.Errorf("no such column: nonexistent")
	exec := &fakeExecutor{failWith: map[string]error{badSQL: execErr}}
	g, err := NewGenerator(GeneratorConfig{Generator: gen, Executor: exec})
	require.NoError(t, err)

	_, err = g.GenerateAndExecute(context.Background(), listUsersIntent())
	require.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, gen.calls)
}

func TestGenerateAndExecute_ParamMismatchRejected(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{
		`{"sql": "SELECT * FROM users WHERE a = ? AND b = ?", "params": ["one"]}`,
	}}
	exec := &fakeExecutor{}
	g, err := NewGenerator(GeneratorConfig{Generator: gen, Executor: exec})
	require.NoError(t, err)

	_, err = g.GenerateAndExecute(context.Background(), listUsersIntent())
	require.Error(t, err)
	assert.Equal(t, types.KindSQLGeneration, types.KindOf(err))
	assert.Empty(t, exec.executed)
}

func TestGenerateAndExecute_SchemaInvalidOutputRetried(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{
		`{"params": []}`, // missing sql
		`{"sql": "SELECT id FROM users", "params": []}`,
	}}
	exec := &fakeExecutor{results: map[string][]types.Row{"SELECT id FROM users": {}}}
	g, err := NewGenerator(GeneratorConfig{Generator: gen, Executor: exec})
	require.NoError(t, err)

	out, err := g.GenerateAndExecute(context.Background(), listUsersIntent())
	require.NoError(t, err)
	assert.Equal(t, 2, out.Attempts)
	assert.Nil(t, out.ResultSchema, "empty result sets carry no schema")
}

func TestGenerate_DoesNotExecute(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{
		`{"sql": "SELECT id FROM users", "params": []}`,
	}}
	exec := &fakeExecutor{}
	g, err := NewGenerator(GeneratorConfig{Generator: gen, Executor: exec})
	require.NoError(t, err)

	sql, params, err := g.Generate(context.Background(), listUsersIntent())
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users", sql)
	assert.Empty(t, params)
	assert.Empty(t, exec.executed)
}
