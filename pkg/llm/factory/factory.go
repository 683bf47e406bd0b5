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

// Package factory creates LLM providers from configuration. Selection is
// a constructor-time switch; no reflection, no dynamic loading.
package factory

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/strata/pkg/llm"
	"github.com/teradata-labs/strata/pkg/llm/anthropic"
	"github.com/teradata-labs/strata/pkg/llm/cohere"
	"github.com/teradata-labs/strata/pkg/llm/gemini"
	"github.com/teradata-labs/strata/pkg/llm/mistral"
	"github.com/teradata-labs/strata/pkg/llm/openai"
)

// ProviderConfig selects and configures one provider.
type ProviderConfig struct {
	// Provider is one of anthropic, openai, cohere, mistral, google
	Provider string

	// Model is the model identifier (provider default when empty)
	Model string

	// APIKey is the credential (provider env var fallback when empty)
	APIKey string

	// MaxTokens caps generation output. Default: 2048
	MaxTokens int

	// Timeout is the per-request HTTP timeout. Default: 60s
	Timeout time.Duration

	// Retry is the backoff policy for transient failures
	Retry llm.RetryConfig

	// Logger for retry events
	Logger *zap.Logger
}

// NewGenerator builds a retry-wrapped structured generator for the
// configured provider.
func NewGenerator(cfg ProviderConfig) (llm.Generator, error) {
	retry := cfg.Retry
	if retry.Logger == nil {
		retry.Logger = cfg.Logger
	}

	var gen llm.Generator
	switch cfg.Provider {
	case "anthropic":
		gen = anthropic.NewClient(anthropic.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	case "openai":
		gen = openai.NewClient(openai.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	case "cohere":
		gen = cohere.NewClient(cohere.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	case "mistral":
		gen = mistral.NewClient(mistral.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	case "google":
		gen = gemini.NewClient(gemini.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (expected anthropic, openai, cohere, mistral, or google)", cfg.Provider)
	}

	return llm.NewRetryingGenerator(gen, retry), nil
}

// NewEmbedder builds a retry-wrapped embedder for the configured provider.
// Anthropic exposes no embeddings API and is rejected here so the
// misconfiguration surfaces at startup, not on the first L2 lookup.
func NewEmbedder(cfg ProviderConfig) (llm.Embedder, error) {
	retry := cfg.Retry
	if retry.Logger == nil {
		retry.Logger = cfg.Logger
	}

	var emb llm.Embedder
	switch cfg.Provider {
	case "openai":
		emb = openai.NewClient(openai.Config{
			APIKey:         cfg.APIKey,
			EmbeddingModel: cfg.Model,
			Timeout:        cfg.Timeout,
		})
	case "cohere":
		emb = cohere.NewClient(cohere.Config{
			APIKey:         cfg.APIKey,
			EmbeddingModel: cfg.Model,
			Timeout:        cfg.Timeout,
		})
	case "mistral":
		emb = mistral.NewClient(mistral.Config{
			APIKey:         cfg.APIKey,
			EmbeddingModel: cfg.Model,
			Timeout:        cfg.Timeout,
		})
	case "google":
		emb = gemini.NewClient(gemini.Config{
			APIKey:         cfg.APIKey,
			EmbeddingModel: cfg.Model,
			Timeout:        cfg.Timeout,
		})
	case "anthropic":
		return nil, fmt.Errorf("provider anthropic has no embeddings API; configure a different provider for the semantic cache")
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q (expected openai, cohere, mistral, or google)", cfg.Provider)
	}

	return llm.NewRetryingEmbedder(emb, retry), nil
}
