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

package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors into a flat taxonomy. Callers match
// on the kind, not on concrete types.
type ErrorKind string

const (
	// KindIntentParse: the LLM output could not be coerced into a valid Intent
	KindIntentParse ErrorKind = "intent_parse"

	// KindSQLGeneration: generated SQL failed safety validation or the
	// placeholder/param contract after all attempts
	KindSQLGeneration ErrorKind = "sql_generation"

	// KindSQLExecution: the database driver rejected the query
	KindSQLExecution ErrorKind = "sql_execution"

	// KindLLM: transport, quota or timeout failure after backoff retries
	KindLLM ErrorKind = "llm"

	// KindCache: pin violation, embedding dimension mismatch, or a KV
	// protocol failure that matters to correctness
	KindCache ErrorKind = "cache"
)

// Error is the structured error carried across the engine. It wraps the
// underlying cause and optionally carries the offending SQL plus
// machine-readable suggestions for the caller.
type Error struct {
	Kind        ErrorKind
	Message     string
	SQL         string
	Suggestions []string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithSQL attaches the offending SQL statement.
func (e *Error) WithSQL(sql string) *Error {
	e.SQL = sql
	return e
}

// WithSuggestions attaches machine-readable remediation hints.
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// NewError builds an Error of the given kind wrapping cause (may be nil).
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// NewIntentParseError reports an unparseable natural-language query.
func NewIntentParseError(message string, cause error) *Error {
	return NewError(KindIntentParse, message, cause)
}

// NewSQLGenerationError reports SQL that failed validation after retries.
func NewSQLGenerationError(message string, cause error) *Error {
	return NewError(KindSQLGeneration, message, cause)
}

// NewSQLExecutionError reports a driver rejection.
func NewSQLExecutionError(message string, cause error) *Error {
	return NewError(KindSQLExecution, message, cause)
}

// NewLLMError reports an exhausted LLM transport failure.
func NewLLMError(message string, cause error) *Error {
	return NewError(KindLLM, message, cause)
}

// NewCacheError reports a cache correctness violation.
func NewCacheError(message string, cause error) *Error {
	return NewError(KindCache, message, cause)
}

// KindOf extracts the error kind, or "" when err is not an engine Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether the outermost engine Error in err's chain has the
// given kind; kinds of Errors nested deeper in the chain are not checked.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
