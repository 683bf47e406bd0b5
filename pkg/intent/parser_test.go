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
package intent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/strata/pkg/types"
)

// scriptedGenerator returns canned JSON documents in order.
type scriptedGenerator struct {
	outputs []string
	calls   int
}

func (g *scriptedGenerator) GenerateStructured(_ context.Context, _, _ string, _ map[string]any) (json.RawMessage, error) {
	if g.calls >= len(g.outputs) {
		g.calls++
		return json.RawMessage(g.outputs[len(g.outputs)-1]), nil
	}
	out := g.outputs[g.calls]
	g.calls++
	return json.RawMessage(out), nil
}

func (g *scriptedGenerator) Name() string  { return "scripted" }
func (g *scriptedGenerator) Model() string { return "test" }

func newTestParser(t *testing.T, gen *scriptedGenerator) *Parser {
	t.Helper()
	p, err := NewParser(ParserConfig{
		Generator:         gen,
		SchemaDescription: "Table users:\n  id integer NOT NULL\n  status text NULL\n",
		Tables:            []string{"users", "orders"},
	})
	require.NoError(t, err)
	return p
}

func TestParse_ValidIntent(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{
		`{"entity": "Users", "operation": "filter", "filters": {"Status": "Active"}}`,
	}}
	p := newTestParser(t, gen)

	in, err := p.Parse(context.Background(), "show me active users")
	require.NoError(t, err)

	assert.Equal(t, "users", in.Entity)
	assert.Equal(t, "filter", in.Operation)
	assert.Equal(t, "entity:users|operation:filter|filters:status=active", in.NormalizedText)
	assert.Equal(t, 1, gen.calls)
}

func TestParse_NullFiltersBecomeEmptyMap(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{
		`{"entity": "users", "operation": "list", "filters": null}`,
	}}
	p := newTestParser(t, gen)

	in, err := p.Parse(context.Background(), "all users")
	require.NoError(t, err)
	require.NotNil(t, in.Filters)
	assert.Empty(t, in.Filters)
}

func TestParse_RetriesOnInvalidOutputThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{
		`{"entity": "users"}`, // missing operation
		`{"entity": "users", "operation": "list"}`,
	}}
	p := newTestParser(t, gen)

	in, err := p.Parse(context.Background(), "all users")
	require.NoError(t, err)
	assert.Equal(t, "list", in.Operation)
	assert.Equal(t, 2, gen.calls)
}

func TestParse_UnknownTableFailsAfterRetries(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{
		`{"entity": "customers", "operation": "list"}`,
	}}
	p := newTestParser(t, gen)

	_, err := p.Parse(context.Background(), "list customers")
	require.Error(t, err)
	assert.Equal(t, types.KindIntentParse, types.KindOf(err))
	assert.Equal(t, DefaultMaxAttempts, gen.calls)
}

func TestParse_RejectsOverlongQuery(t *testing.T) {
	gen := &scriptedGenerator{}
	p := newTestParser(t, gen)

	_, err := p.Parse(context.Background(), strings.Repeat("x", DefaultMaxQueryLength+1))
	require.Error(t, err)
	assert.Equal(t, types.KindIntentParse, types.KindOf(err))
	assert.Zero(t, gen.calls, "overlong queries must not reach the LLM")
}

func TestParse_RejectsEmptyQuery(t *testing.T) {
	p := newTestParser(t, &scriptedGenerator{})
	_, err := p.Parse(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, types.KindIntentParse, types.KindOf(err))
}

func TestParse_UnknownOperationRejected(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{
		`{"entity": "users", "operation": "explode"}`,
	}}
	p := newTestParser(t, gen)

	_, err := p.Parse(context.Background(), "explode users")
	require.Error(t, err)
	assert.Equal(t, types.KindIntentParse, types.KindOf(err))
}
