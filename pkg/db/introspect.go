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
	"fmt"
	"strings"
)

// introspect builds the schema snapshot for the connected dialect.
func (db *DB) introspect(ctx context.Context) (*Schema, error) {
	tables, err := db.introspectTables(ctx)
	if err != nil {
		return nil, err
	}

	schema := &Schema{Dialect: db.driver.DialectName()}
	for _, name := range tables {
		cols, err := db.introspectColumns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect columns of %s: %w", name, err)
		}
		fks, err := db.introspectForeignKeys(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect foreign keys of %s: %w", name, err)
		}
		schema.Tables = append(schema.Tables, Table{Name: name, Columns: cols, ForeignKeys: fks})
	}
	return schema, nil
}

func (db *DB) introspectTables(ctx context.Context) ([]string, error) {
	var query string
	switch db.driver {
	case DriverPostgres:
		query = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = 'public' AND table_type = 'BASE TABLE' ORDER BY table_name`
	case DriverMySQL:
		query = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name`
	case DriverSQLite:
		query = `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case DriverSQLServer:
		query = `SELECT table_name FROM information_schema.tables
			WHERE table_type = 'BASE TABLE' ORDER BY table_name`
	default:
		return nil, fmt.Errorf("unknown driver %q", db.driver)
	}

	rows, err := db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		for _, v := range row {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
	}
	return names, nil
}

func (db *DB) introspectColumns(ctx context.Context, table string) ([]Column, error) {
	var query string
	switch db.driver {
	case DriverPostgres:
		query = `SELECT column_name, data_type, is_nullable FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = ? ORDER BY ordinal_position`
	case DriverMySQL:
		query = `SELECT column_name, data_type, is_nullable FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position`
	case DriverSQLite:
		query = `SELECT name AS column_name, type AS data_type,
			CASE "notnull" WHEN 0 THEN 'YES' ELSE 'NO' END AS is_nullable
			FROM pragma_table_info(?) ORDER BY cid`
	case DriverSQLServer:
		query = `SELECT column_name, data_type, is_nullable FROM information_schema.columns
			WHERE table_name = ? ORDER BY ordinal_position`
	default:
		return nil, fmt.Errorf("unknown driver %q", db.driver)
	}

	rows, err := db.Query(ctx, query, []any{table})
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		cols = append(cols, Column{
			Name:     stringField(row, "column_name"),
			DataType: strings.ToLower(stringField(row, "data_type")),
			Nullable: strings.EqualFold(stringField(row, "is_nullable"), "YES"),
		})
	}
	return cols, nil
}

func (db *DB) introspectForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	var query string
	switch db.driver {
	case DriverPostgres:
		query = `SELECT kcu.column_name, ccu.table_name AS ref_table, ccu.column_name AS ref_column
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
			JOIN information_schema.constraint_column_usage ccu
				ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
			WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_name = ?`
	case DriverMySQL:
		query = `SELECT column_name, referenced_table_name AS ref_table, referenced_column_name AS ref_column
			FROM information_schema.key_column_usage
			WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL`
	case DriverSQLite:
		query = `SELECT "from" AS column_name, "table" AS ref_table, "to" AS ref_column
			FROM pragma_foreign_key_list(?)`
	case DriverSQLServer:
		query = `SELECT kcu.column_name, ccu.table_name AS ref_table, ccu.column_name AS ref_column
			FROM information_schema.referential_constraints rc
			JOIN information_schema.key_column_usage kcu ON rc.constraint_name = kcu.constraint_name
			JOIN information_schema.constraint_column_usage ccu ON rc.unique_constraint_name = ccu.constraint_name
			WHERE kcu.table_name = ?`
	default:
		return nil, fmt.Errorf("unknown driver %q", db.driver)
	}

	rows, err := db.Query(ctx, query, []any{table})
	if err != nil {
		return nil, err
	}
	fks := make([]ForeignKey, 0, len(rows))
	for _, row := range rows {
		fk := ForeignKey{
			Column:    stringField(row, "column_name"),
			RefTable:  stringField(row, "ref_table"),
			RefColumn: stringField(row, "ref_column"),
		}
		if fk.Column != "" && fk.RefTable != "" {
			fks = append(fks, fk)
		}
	}
	return fks, nil
}

// stringField reads a row value by case-insensitive column name; drivers
// disagree about identifier casing in information_schema results.
func stringField(row map[string]any, name string) string {
	if v, ok := row[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	for k, v := range row {
		if strings.EqualFold(k, name) {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
