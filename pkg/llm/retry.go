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

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/strata/pkg/types"
)

// RetryConfig controls the exponential backoff applied to transient
// provider failures (429 throttling, 5xx, transport errors).
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	// Default: 3
	MaxRetries int

	// InitialBackoff is the first retry delay; it doubles each retry.
	// Default: 1s
	InitialBackoff time.Duration

	// Logger for retry events
	Logger *zap.Logger
}

// DefaultRetryConfig returns the standard 1s/2s/4s backoff schedule.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		Logger:         zap.NewNop(),
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = 1 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// retryable reports whether err is worth retrying. Context cancellation
// never is; API errors decide for themselves; anything else is treated as
// a transport failure and retried.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

// withBackoff runs op with exponential backoff. The final failure is
// wrapped as an llm-kind error so callers see one taxonomy regardless of
// which provider failed.
func withBackoff(ctx context.Context, cfg RetryConfig, what string, op func(context.Context) error) error {
	cfg = cfg.withDefaults()
	delay := cfg.InitialBackoff

	var err error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			cfg.Logger.Warn("retrying LLM call",
				zap.String("op", what),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return types.NewLLMError(what+" canceled", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			break
		}
	}
	return types.NewLLMError(what+" failed after retries", err)
}

// RetryingGenerator decorates a Generator with backoff retries.
type RetryingGenerator struct {
	inner Generator
	cfg   RetryConfig
}

// NewRetryingGenerator wraps gen with the given retry policy.
func NewRetryingGenerator(gen Generator, cfg RetryConfig) *RetryingGenerator {
	return &RetryingGenerator{inner: gen, cfg: cfg.withDefaults()}
}

// GenerateStructured retries transient failures with exponential backoff.
func (g *RetryingGenerator) GenerateStructured(ctx context.Context, system, user string, schema map[string]any) (json.RawMessage, error) {
	var out json.RawMessage
	err := withBackoff(ctx, g.cfg, "generate", func(ctx context.Context) error {
		var opErr error
		out, opErr = g.inner.GenerateStructured(ctx, system, user, schema)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Name returns the wrapped provider name.
func (g *RetryingGenerator) Name() string { return g.inner.Name() }

// Model returns the wrapped model identifier.
func (g *RetryingGenerator) Model() string { return g.inner.Model() }

// RetryingEmbedder decorates an Embedder with backoff retries.
type RetryingEmbedder struct {
	inner Embedder
	cfg   RetryConfig
}

// NewRetryingEmbedder wraps emb with the given retry policy.
func NewRetryingEmbedder(emb Embedder, cfg RetryConfig) *RetryingEmbedder {
	return &RetryingEmbedder{inner: emb, cfg: cfg.withDefaults()}
}

// Embed retries transient failures with exponential backoff.
func (e *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := withBackoff(ctx, e.cfg, "embed", func(ctx context.Context) error {
		var opErr error
		out, opErr = e.inner.Embed(ctx, text)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Name returns the wrapped provider name.
func (e *RetryingEmbedder) Name() string { return e.inner.Name() }

// Model returns the wrapped embedding model identifier.
func (e *RetryingEmbedder) Model() string { return e.inner.Model() }
