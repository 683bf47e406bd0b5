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
package gemini

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
	DefaultModel          = "gemini-1.5-pro"
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTimeout        = 60 * time.Second
	DefaultMaxTokens      = 2048
)

// Client implements the Generator and Embedder interfaces for Google's
// Gemini API. JSON output is enforced with responseMimeType +
// responseSchema on the generation config.
type Client struct {
	apiKey         string
	model          string
	embeddingModel string
	baseURL        string
	maxTokens      int
	httpClient     *http.Client
}

// Config holds configuration for the Gemini client.
type Config struct {
	APIKey         string
	Model          string        // Default: gemini-1.5-pro
	EmbeddingModel string        // Default: text-embedding-004
	BaseURL        string        // Default: https://generativelanguage.googleapis.com/v1beta
	Timeout        time.Duration // Default: 60s
	MaxTokens      int           // Default: 2048
}

// NewClient creates a new Gemini client.
func NewClient(config Config) *Client {
	if config.APIKey == "" {
		config.APIKey = os.Getenv("GEMINI_API_KEY")
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
func (c *Client) Name() string { return "google" }

// Model returns the model identifier.
func (c *Client) Model() string { return c.model }

type generateRequest struct {
	SystemInstruction *content       `json:"systemInstruction,omitempty"`
	Contents          []content      `json:"contents"`
	GenerationConfig  generateConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateConfig struct {
	Temperature      float64        `json:"temperature"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateStructured enforces application/json output constrained by schema.
func (c *Client) GenerateStructured(ctx context.Context, system, user string, schema map[string]any) (json.RawMessage, error) {
	req := &generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: system}}},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: user}}},
		},
		GenerationConfig: generateConfig{
			Temperature:      0,
			MaxOutputTokens:  c.maxTokens,
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}

	path := fmt.Sprintf("/models/%s:generateContent", c.model)
	var resp generateResponse
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}
	return json.RawMessage(resp.Candidates[0].Content.Parts[0].Text), nil
}

type embedRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &embedRequest{
		Model:   "models/" + c.embeddingModel,
		Content: content{Parts: []part{{Text: text}}},
	}

	path := fmt.Sprintf("/models/%s:embedContent", c.embeddingModel)
	var resp embedResponse
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	return resp.Embedding.Values, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + path + "?key=" + c.apiKey
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
			Provider:   "google",
			StatusCode: httpResp.StatusCode,
			Body:       string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
