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

// Package llm defines the two provider capabilities the engine needs:
// schema-constrained generation and text embedding. Concrete providers
// live in subpackages; selection happens once, in pkg/llm/factory.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Generator produces a JSON document conforming to the given JSON Schema.
// Implementations must force structured output (tool-use or JSON mode) and
// run at temperature 0 so identical inputs yield identical outputs.
type Generator interface {
	// GenerateStructured sends system+user prompts and returns raw JSON
	// that the provider claims conforms to schema. Callers re-validate.
	GenerateStructured(ctx context.Context, system, user string, schema map[string]any) (json.RawMessage, error)

	// Name returns the provider name
	Name() string

	// Model returns the model identifier
	Model() string
}

// Embedder converts text into a fixed-length vector. Vector length is a
// property of provider+model and must stay constant for the process
// lifetime; the semantic cache rejects entries of a different dimension.
type Embedder interface {
	// Embed returns the embedding vector for text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name returns the provider name
	Name() string

	// Model returns the embedding model identifier
	Model() string
}

// APIError is a transport-level provider failure. Retryability is decided
// from the HTTP status: 429 and 5xx are transient, everything else is not.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed on retry.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
