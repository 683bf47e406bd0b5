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
package anthropic

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
	// DefaultModel is the default Claude model
	DefaultModel = "claude-3-5-sonnet-20241022"
	// DefaultEndpoint is the default Anthropic messages endpoint
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	// DefaultMaxTokens is the default maximum tokens per request
	DefaultMaxTokens = 2048
	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 60 * time.Second

	apiVersion = "2023-06-01"

	// emitToolName is the forced tool used to coerce structured output.
	// Claude has no JSON mode; a single tool whose input schema is the
	// caller's schema gives the same guarantee.
	emitToolName = "emit"
)

// Client implements the Generator interface for Anthropic's Claude API.
// Claude has no embeddings endpoint, so this package provides no Embedder.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	maxTokens  int
	httpClient *http.Client
}

// Config holds configuration for the Anthropic client.
type Config struct {
	APIKey    string
	Model     string        // Default: claude-3-5-sonnet-20241022
	Endpoint  string        // Default: https://api.anthropic.com/v1/messages
	Timeout   time.Duration // Default: 60s
	MaxTokens int           // Default: 2048
}

// NewClient creates a new Anthropic client.
func NewClient(config Config) *Client {
	if config.APIKey == "" {
		config.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if config.Model == "" {
		if envModel := os.Getenv("ANTHROPIC_DEFAULT_MODEL"); envModel != "" {
			config.Model = envModel
		} else {
			config.Model = DefaultModel
		}
	}
	if config.Endpoint == "" {
		if envEndpoint := os.Getenv("ANTHROPIC_API_ENDPOINT"); envEndpoint != "" {
			config.Endpoint = envEndpoint
		} else {
			config.Endpoint = DefaultEndpoint
		}
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}

	return &Client{
		apiKey:    config.APIKey,
		model:     config.Model,
		endpoint:  config.Endpoint,
		maxTokens: config.MaxTokens,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "anthropic"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateStructured forces Claude to call a single tool whose input
// schema is the requested schema and returns the tool input verbatim.
func (c *Client) GenerateStructured(ctx context.Context, system, user string, schema map[string]any) (json.RawMessage, error) {
	req := &messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages: []message{
			{Role: "user", Content: user},
		},
		Temperature: 0,
		Tools: []tool{
			{
				Name:        emitToolName,
				Description: "Emit the structured result.",
				InputSchema: schema,
			},
		},
		ToolChoice: &toolChoice{Type: "tool", Name: emitToolName},
	}

	resp, err := c.callAPI(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == emitToolName {
			return block.Input, nil
		}
	}
	return nil, fmt.Errorf("anthropic response contained no %s tool call", emitToolName)
}

// callAPI sends the request and decodes the response.
func (c *Client) callAPI(ctx context.Context, req *messagesRequest) (*messagesResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &llm.APIError{
			Provider:   "anthropic",
			StatusCode: httpResp.StatusCode,
			Body:       string(respBody),
		}
	}

	var resp messagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}
