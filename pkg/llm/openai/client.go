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
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/teradata-labs/strata/pkg/llm"
)

// Default OpenAI configuration values.
// Can be overridden via environment variables:
//   - OPENAI_DEFAULT_MODEL / OPENAI_EMBEDDING_MODEL
//   - OPENAI_API_BASE
const (
	DefaultModel          = "gpt-4o"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultTimeout        = 60 * time.Second
	DefaultMaxTokens      = 2048
)

// Client implements the Generator and Embedder interfaces for OpenAI.
type Client struct {
	apiKey         string
	model          string
	embeddingModel string
	baseURL        string
	maxTokens      int
	httpClient     *http.Client
}

// Config holds configuration for the OpenAI client.
type Config struct {
	APIKey         string
	Model          string        // Default: gpt-4o
	EmbeddingModel string        // Default: text-embedding-3-small
	BaseURL        string        // Default: https://api.openai.com/v1
	Timeout        time.Duration // Default: 60s
	MaxTokens      int           // Default: 2048
}

// NewClient creates a new OpenAI client.
func NewClient(config Config) *Client {
	if config.APIKey == "" {
		config.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if config.Model == "" {
		if envModel := os.Getenv("OPENAI_DEFAULT_MODEL"); envModel != "" {
			config.Model = envModel
		} else {
			config.Model = DefaultModel
		}
	}
	if config.EmbeddingModel == "" {
		if envModel := os.Getenv("OPENAI_EMBEDDING_MODEL"); envModel != "" {
			config.EmbeddingModel = envModel
		} else {
			config.EmbeddingModel = DefaultEmbeddingModel
		}
	}
	if config.BaseURL == "" {
		if envBase := os.Getenv("OPENAI_API_BASE"); envBase != "" {
			config.BaseURL = envBase
		} else {
			config.BaseURL = DefaultBaseURL
		}
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}

	return &Client{
		apiKey:         config.APIKey,
		model:          config.Model,
		embeddingModel: config.EmbeddingModel,
		baseURL:        config.BaseURL,
		maxTokens:      config.MaxTokens,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "openai"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateStructured uses the structured-outputs response format so the
// completion is guaranteed to match schema.
func (c *Client) GenerateStructured(ctx context.Context, system, user string, schema map[string]any) (json.RawMessage, error) {
	req := &chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   "structured_output",
				Schema: schema,
			},
		},
	}

	var resp chatCompletionResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	return json.RawMessage(resp.Choices[0].Message.Content), nil
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &embeddingRequest{
		Model: c.embeddingModel,
		Input: []string{text},
	}

	var resp embeddingResponse
	if err := c.post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embeddings")
	}
	return resp.Data[0].Embedding, nil
}

// post sends a JSON request to the given API path and decodes into out.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return &llm.APIError{
			Provider:   "openai",
			StatusCode: httpResp.StatusCode,
			Body:       string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
