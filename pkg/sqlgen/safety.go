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
	"fmt"
	"regexp"
	"strings"

	"github.com/teradata-labs/strata/pkg/types"
)

// forbiddenKeywords are the statement verbs that must never appear in
// generated SQL, matched as whole words after uppercasing.
var forbiddenKeywords = []string{
	"UPDATE", "DELETE", "DROP", "ALTER", "INSERT", "CREATE",
	"TRUNCATE", "REPLACE", "PRAGMA", "ATTACH", "DETACH",
}

var wordPattern = regexp.MustCompile(`[A-Z_][A-Z0-9_]*`)

// ValidateSQL enforces the read-only contract on generated SQL:
// the statement starts with SELECT or WITH, contains no forbidden verb,
// and binds exactly len(params) placeholders. Rejected SQL is never
// executed.
func ValidateSQL(sqlText string, params []any) error {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return types.NewSQLGenerationError("generated SQL is empty", nil)
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return types.NewSQLGenerationError("generated SQL must begin with SELECT or WITH", nil).
			WithSQL(sqlText)
	}

	for _, word := range wordPattern.FindAllString(upper, -1) {
		for _, kw := range forbiddenKeywords {
			if word == kw {
				return types.NewSQLGenerationError("generated SQL contains forbidden keyword "+kw, nil).
					WithSQL(sqlText)
			}
		}
	}

	placeholders := CountPlaceholders(sqlText)
	if placeholders != len(params) {
		return types.NewSQLGenerationError(
			fmt.Sprintf("placeholder count mismatch: SQL has %d placeholders but %d params were provided", placeholders, len(params)), nil).
			WithSQL(sqlText)
	}

	return nil
}

// CountPlaceholders counts ? markers outside single-quoted string
// literals. '' inside a literal is an escaped quote, not a terminator.
func CountPlaceholders(sqlText string) int {
	n := 0
	inString := false
	for i := 0; i < len(sqlText); i++ {
		switch {
		case sqlText[i] == '\'':
			if inString && i+1 < len(sqlText) && sqlText[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
		case sqlText[i] == '?' && !inString:
			n++
		}
	}
	return n
}
