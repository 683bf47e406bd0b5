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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/teradata-labs/strata/pkg/types"
)

// FingerprintLength is the number of hex characters kept from the SHA-256
// digest. Fingerprints are portable across instances, so this constant is
// part of the cache wire contract.
const FingerprintLength = 16

// Normalize rewrites the intent into canonical form and computes its
// normalized text. The algorithm is a bit-for-bit contract: any deviation
// breaks cross-instance cache compatibility.
//
//  1. entity and operation are lowercased and trimmed
//  2. filter keys and stringified values are lowercased and trimmed
//  3. filter entries are sorted lexicographically by key
//  4. the canonical string is pipe-delimited:
//     entity:<e>|operation:<o>[|filters:k=v,...][|limit:n][|fields:a,b][|sort:s]
func Normalize(in types.Intent) types.Intent {
	in.Entity = strings.ToLower(strings.TrimSpace(in.Entity))
	in.Operation = strings.ToLower(strings.TrimSpace(in.Operation))

	filters := make(map[string]any, len(in.Filters))
	for k, v := range in.Filters {
		filters[strings.ToLower(strings.TrimSpace(k))] = v
	}
	in.Filters = filters

	var b strings.Builder
	b.WriteString("entity:")
	b.WriteString(in.Entity)
	b.WriteString("|operation:")
	b.WriteString(in.Operation)

	if len(in.Filters) > 0 {
		keys := make([]string, 0, len(in.Filters))
		for k := range in.Filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("|filters:")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(canonicalValue(in.Filters[k]))
		}
	}

	if in.Limit > 0 {
		b.WriteString("|limit:")
		b.WriteString(strconv.Itoa(in.Limit))
	}

	if len(in.Fields) > 0 {
		fields := make([]string, len(in.Fields))
		for i, f := range in.Fields {
			fields[i] = strings.ToLower(strings.TrimSpace(f))
		}
		sort.Strings(fields)
		b.WriteString("|fields:")
		b.WriteString(strings.Join(fields, ","))
	}

	if in.Sort != "" {
		b.WriteString("|sort:")
		b.WriteString(strings.ToLower(strings.TrimSpace(in.Sort)))
	}

	in.NormalizedText = b.String()
	return in
}

// canonicalValue renders a filter value as its canonical lowercase string.
// Lists render as comma-joined element strings; numbers drop a trailing
// ".0" so 5 and 5.0 collide, as they would after JSON round-tripping.
func canonicalValue(v any) string {
	return strings.ToLower(strings.TrimSpace(stringify(v)))
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case json.Number:
		return val.String()
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		// Objects are rare in filters; JSON is at least deterministic
		// per Go's sorted map-key marshaling.
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(raw)
	}
}

// Fingerprint hashes the normalized text into the 16-hex-char identity
// used as the L1 key and the cross-layer schema identity.
func Fingerprint(in types.Intent) string {
	sum := sha256.Sum256([]byte(in.NormalizedText))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

// FingerprintText is the query-text variant of the L1 key derivation, for
// paths that have no parsed Intent yet: lowercase, trim, collapse runs of
// whitespace, hash. The coordinator itself always fingerprints intents.
func FingerprintText(query string) string {
	canonical := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}
