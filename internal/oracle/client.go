// Package oracle is the HTTP client for the external disambiguation
// model. Transport only: the engine owns prompt construction and answer
// interpretation.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config carries everything the client needs; nothing is read from
// process-wide state. Endpoint and Deployment address an Azure-style
// chat-completions route
// {endpoint}/openai/deployments/{deployment}/chat/completions.
type Config struct {
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Deployment  string  `yaml:"deployment"`
	APIVersion  string  `yaml:"api_version"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
}

// DefaultConfig returns the request shape used for short single-value
// answers.
func DefaultConfig() Config {
	return Config{
		APIVersion:  "2025-01-01-preview",
		TimeoutSecs: 30,
		Temperature: 0.1,
		MaxTokens:   200,
		TopP:        0.95,
	}
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("oracle: endpoint is required")
	case c.APIKey == "":
		return fmt.Errorf("oracle: api key is required")
	case c.Deployment == "":
		return fmt.Errorf("oracle: deployment is required")
	}
	return nil
}

// Client makes one blocking round trip per question. No retries: a
// failed or slow call is reported as an error and the caller falls back
// to its rule-based result.
type Client struct {
	config Config
	http   *http.Client
}

func NewClient(config Config) *Client {
	return &Client{
		config: config,
		http: &http.Client{
			Timeout: time.Duration(config.TimeoutSecs) * time.Second,
		},
	}
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// HTTPError is a non-2xx response from the oracle endpoint.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Ask sends one system+user exchange and returns the model's text
// answer, trimmed.
func (c *Client) Ask(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		TopP:        c.config.TopP,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.config.Endpoint, "/"),
		url.PathEscape(c.config.Deployment),
		url.QueryEscape(c.config.APIVersion))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.config.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("parsing response JSON: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	answer := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("empty answer")
	}
	return answer, nil
}
