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
package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/strata/pkg/types"
)

// newSQLiteFixture creates a file-backed sqlite database with two related
// tables and some rows.
func newSQLiteFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")

	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	stmts := []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT
		)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			total REAL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`INSERT INTO users (id, name, status) VALUES (1, 'ada', 'active'), (2, 'grace', 'inactive')`,
		`INSERT INTO orders (id, user_id, total) VALUES (10, 1, 99.5)`,
	}
	for _, stmt := range stmts {
		_, err := conn.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestOpen_IntrospectsSQLiteSchema(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, Config{Driver: DriverSQLite, DSN: newSQLiteFixture(t)})
	require.NoError(t, err)
	defer database.Close()

	assert.Equal(t, []string{"orders", "users"}, database.Tables())

	users, ok := database.Schema().Table("users")
	require.True(t, ok)
	require.Len(t, users.Columns, 3)
	assert.Equal(t, "name", users.Columns[1].Name)
	assert.False(t, users.Columns[1].Nullable)
	assert.True(t, users.Columns[2].Nullable)

	orders, ok := database.Schema().Table("orders")
	require.True(t, ok)
	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, "user_id", orders.ForeignKeys[0].Column)
	assert.Equal(t, "users", orders.ForeignKeys[0].RefTable)
	assert.Equal(t, "id", orders.ForeignKeys[0].RefColumn)

	desc := database.DescribeSchema()
	assert.Contains(t, desc, "Table users:")
	assert.Contains(t, desc, "FOREIGN KEY user_id REFERENCES users(id)")
}

func TestQuery_ParameterizedRows(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, Config{Driver: DriverSQLite, DSN: newSQLiteFixture(t)})
	require.NoError(t, err)
	defer database.Close()

	rows, err := database.Query(ctx, "SELECT id, name FROM users WHERE status = ? ORDER BY id", []any{"active"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "ada", rows[0]["name"])
}

func TestQuery_ExecutionErrorKind(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, Config{Driver: DriverSQLite, DSN: newSQLiteFixture(t)})
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Query(ctx, "SELECT nope FROM users", nil)
	require.Error(t, err)
	assert.Equal(t, types.KindSQLExecution, types.KindOf(err))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}
