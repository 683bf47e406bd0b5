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
	"fmt"
	"strings"
)

// Column is one introspected column.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

// ForeignKey is one introspected foreign-key relationship.
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

// Table is one introspected table.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// Schema is the snapshot of the database structure taken at open time.
type Schema struct {
	Dialect string  `json:"dialect"`
	Tables  []Table `json:"tables"`
}

// Describe renders the schema as the text block fed to LLM prompts:
// tables, columns with types and nullability, and FK relationships.
func (s *Schema) Describe() string {
	var b strings.Builder
	b.WriteString("Database tables:\n")
	for _, t := range s.Tables {
		fmt.Fprintf(&b, "\nTable %s:\n", t.Name)
		for _, c := range t.Columns {
			null := "NOT NULL"
			if c.Nullable {
				null = "NULL"
			}
			fmt.Fprintf(&b, "  %s %s %s\n", c.Name, c.DataType, null)
		}
		for _, fk := range t.ForeignKeys {
			fmt.Fprintf(&b, "  FOREIGN KEY %s REFERENCES %s(%s)\n", fk.Column, fk.RefTable, fk.RefColumn)
		}
	}
	return b.String()
}

// Table looks up a table by case-insensitive name.
func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, name) {
			return &s.Tables[i], true
		}
	}
	return nil, false
}
