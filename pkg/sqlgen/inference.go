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
	"regexp"

	"github.com/teradata-labs/strata/pkg/types"
)

// isoDatePattern matches the ISO-8601 prefix of date and datetime strings.
var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([T ]|$)`)

// InferResultSchema samples the first row of a result set and classifies
// each column as a JSON primitive type. Integers are distinguished from
// floats by integrality; ISO-looking strings stay typed string but carry
// a date hint. An empty result set yields no schema.
func InferResultSchema(rows []types.Row) map[string]types.ColumnType {
	if len(rows) == 0 {
		return nil
	}

	schema := make(map[string]types.ColumnType, len(rows[0]))
	for col, val := range rows[0] {
		schema[col] = classifyValue(val)
	}
	return schema
}

func classifyValue(v any) types.ColumnType {
	switch val := v.(type) {
	case nil:
		return types.ColumnType{Type: "null"}
	case bool:
		return types.ColumnType{Type: "boolean"}
	case int, int32, int64:
		return types.ColumnType{Type: "integer"}
	case float64:
		if val == float64(int64(val)) {
			return types.ColumnType{Type: "integer"}
		}
		return types.ColumnType{Type: "number"}
	case float32:
		return classifyValue(float64(val))
	case string:
		if isoDatePattern.MatchString(val) {
			return types.ColumnType{Type: "string", Hint: "date"}
		}
		return types.ColumnType{Type: "string"}
	case []any:
		return types.ColumnType{Type: "array"}
	case map[string]any:
		return types.ColumnType{Type: "object"}
	default:
		return types.ColumnType{Type: "string"}
	}
}
