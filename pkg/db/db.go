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

// Package db provides dialect-agnostic query execution and schema
// introspection over database/sql. Generated SQL always uses ? placeholders;
// rebinding to the driver's native style happens at execution time.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/teradata-labs/strata/pkg/types"
)

// Driver selects the database dialect.
type Driver string

const (
	DriverPostgres  Driver = "pg"
	DriverMySQL     Driver = "mysql"
	DriverSQLite    Driver = "sqlite"
	DriverSQLServer Driver = "mssql"
)

// sqlDriverName maps the strata driver selector to the registered
// database/sql driver name.
func (d Driver) sqlDriverName() (string, error) {
	switch d {
	case DriverPostgres:
		return "postgres", nil
	case DriverMySQL:
		return "mysql", nil
	case DriverSQLite:
		return "sqlite", nil
	case DriverSQLServer:
		return "sqlserver", nil
	}
	return "", fmt.Errorf("unknown database driver: %q (expected pg, mysql, sqlite, or mssql)", d)
}

// DialectName returns the human name used in LLM prompts.
func (d Driver) DialectName() string {
	switch d {
	case DriverPostgres:
		return "PostgreSQL"
	case DriverMySQL:
		return "MySQL"
	case DriverSQLite:
		return "SQLite"
	case DriverSQLServer:
		return "SQL Server"
	}
	return string(d)
}

// DB wraps one database connection with its dialect and a schema snapshot
// taken at open time. Schema changes during the process lifetime are out
// of scope; operators restart to pick them up.
type DB struct {
	conn   *sql.DB
	driver Driver
	schema *Schema
	logger *zap.Logger
}

// Config configures the database connection.
type Config struct {
	// Driver is one of pg, mysql, sqlite, mssql
	Driver Driver

	// DSN is the driver-specific connection string (a file path for sqlite)
	DSN string

	// Logger for query events
	Logger *zap.Logger
}

// Open connects, verifies the connection, and snapshots the schema.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	name, err := cfg.Driver.sqlDriverName()
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	conn, err := sql.Open(name, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{conn: conn, driver: cfg.Driver, logger: cfg.Logger}
	schema, err := db.introspect(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to introspect schema: %w", err)
	}
	db.schema = schema

	cfg.Logger.Info("database connected",
		zap.String("dialect", cfg.Driver.DialectName()),
		zap.Int("tables", len(schema.Tables)))
	return db, nil
}

// Driver returns the dialect selector.
func (db *DB) Driver() Driver {
	return db.driver
}

// DialectName returns the dialect's human name for prompts.
func (db *DB) DialectName() string {
	return db.driver.DialectName()
}

// Schema returns the snapshot taken at open time.
func (db *DB) Schema() *Schema {
	return db.schema
}

// DescribeSchema renders the snapshot as prompt text.
func (db *DB) DescribeSchema() string {
	return db.schema.Describe()
}

// Tables returns the snapshotted table names.
func (db *DB) Tables() []string {
	names := make([]string, len(db.schema.Tables))
	for i, t := range db.schema.Tables {
		names[i] = t.Name
	}
	return names
}

// Query runs a parameterized read query and normalizes the result set to
// field-map rows. The query uses ? placeholders regardless of dialect.
func (db *DB) Query(ctx context.Context, query string, params []any) ([]types.Row, error) {
	bound := Rebind(db.driver, query)

	rows, err := db.conn.QueryContext(ctx, bound, params...)
	if err != nil {
		return nil, types.NewSQLExecutionError("query failed", err).WithSQL(query)
	}
	defer rows.Close()

	out, err := collectRows(rows)
	if err != nil {
		return nil, types.NewSQLExecutionError("failed to read result rows", err).WithSQL(query)
	}
	return out, nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}
