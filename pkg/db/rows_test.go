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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRebind_Postgres(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT * FROM t WHERE a = ?", "SELECT * FROM t WHERE a = $1"},
		{"SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"SELECT * FROM t WHERE note = 'what?' AND a = ?", "SELECT * FROM t WHERE note = 'what?' AND a = $1"},
		{"SELECT * FROM t WHERE note = 'it''s ?' AND a = ?", "SELECT * FROM t WHERE note = 'it''s ?' AND a = $1"},
		{"SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rebind(DriverPostgres, tt.in), tt.in)
	}
}

func TestRebind_SQLServer(t *testing.T) {
	assert.Equal(t,
		"SELECT * FROM t WHERE a = @p1 AND b = @p2",
		Rebind(DriverSQLServer, "SELECT * FROM t WHERE a = ? AND b = ?"))
}

func TestRebind_QuestionMarkDialectsUntouched(t *testing.T) {
	sql := "SELECT * FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, sql, Rebind(DriverMySQL, sql))
	assert.Equal(t, sql, Rebind(DriverSQLite, sql))
}

func TestNormalizeValue(t *testing.T) {
	assert.Nil(t, normalizeValue(nil))
	assert.Equal(t, "hello", normalizeValue([]byte("hello")))
	assert.Equal(t, int64(7), normalizeValue(7))
	assert.Equal(t, int64(7), normalizeValue(int32(7)))
	assert.Equal(t, float64(2.5), normalizeValue(float32(2.5)))
	assert.Equal(t, true, normalizeValue(true))

	ts := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-07-30T12:00:00Z", normalizeValue(ts))
}

func TestDriverDialectNames(t *testing.T) {
	assert.Equal(t, "PostgreSQL", DriverPostgres.DialectName())
	assert.Equal(t, "MySQL", DriverMySQL.DialectName())
	assert.Equal(t, "SQLite", DriverSQLite.DialectName())
	assert.Equal(t, "SQL Server", DriverSQLServer.DialectName())
}

func TestDriver_SQLDriverName(t *testing.T) {
	for driver, want := range map[Driver]string{
		DriverPostgres:  "postgres",
		DriverMySQL:     "mysql",
		DriverSQLite:    "sqlite",
		DriverSQLServer: "sqlserver",
	} {
		name, err := driver.sqlDriverName()
		assert.NoError(t, err)
		assert.Equal(t, want, name)
	}

	_, err := Driver("oracle").sqlDriverName()
	assert.Error(t, err)
}
