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
package cohere

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

const (
	DefaultModel          = "command-r-plus"
	DefaultEmbeddingModel = "embed-english-v3.0"
	DefaultBaseURL        = "https://api.cohere.com/v1"
	DefaultTimeout        = 60 * time.Second
	DefaultMaxTokens      = 2048
)

// Client implements the Generator and Embedder interfaces for Cohere.
// Cohere uses its own chat and embed request shapes (command-r models,
// embed-v3); this adapter maps them onto the strata capabilities.
type Client struct {
	apiKey         string
	model          string
	embeddingModel string
	baseURL        string
	maxTokens      int
	httpClient     *http.Client
}

// Config holds configuration for the Cohere client.
type Config struct {
	APIKey         string
	Model          string        // Default: command-r-plus
	EmbeddingModel string        // Default: embed-english-v3.0
	BaseURL        string        // Default: https://api.cohere.com/v1
	Timeout        time.Duration // Default: 60s
	MaxTokens      int           // Default: 2048
}

// NewClient creates a new Cohere client.
func NewClient(config Config) *Client {
	if config.APIKey == "" {
		config.APIKey = os.Getenv("COHERE_API_KEY")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = DefaultEmbeddingModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
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
func (c *Client) Name() string { return "cohere" }

// Model returns the model identifier.
func (c *Client) Model() string { return c.model }

type chatRequest struct {
	Model          string          `json:"model"`
	Preamble       string          `json:"preamble,omitempty"`
	Message        string          `json:"message"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type   string         `json:"type"`
	Schema map[string]any `json:"schema,omitempty"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// GenerateStructured asks for a JSON object constrained by schema and
// returns the raw completion text.
func (c *Client) GenerateStructured(ctx context.Context, system, user string, schema map[string]any) (json.RawMessage, error) {
	req := &chatRequest{
		Model:       c.model,
		Preamble:    system,
		Message:     user,
		MaxTokens:   c.maxTokens,
		Temperature: 0,
		ResponseFormat: &responseFormat{
			Type:   "json_object",
			Schema: schema,
		},
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat", req, &resp); err != nil {
		return nil, err
	}
	if resp.Text == "" {
		return nil, fmt.Errorf("cohere returned empty completion")
	}
	return json.RawMessage(resp.Text), nil
}

type embedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &embedRequest{
		Model:     c.embeddingModel,
		Texts:     []string{text},
		InputType: "search_query",
	}

	var resp embedResponse
	if err := c.post(ctx, "/embed", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("cohere returned no embeddings")
	}
	return resp.Embeddings[0], nil
}

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
			Provider:   "cohere",
			StatusCode: httpResp.StatusCode,
			Body:       string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
