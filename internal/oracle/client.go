package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client implements the Service interface over HTTP
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new oracle client with the given configuration
func NewClient(config Config) (*Client, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	switch config.Provider {
	case ProviderOllama:
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
	case ProviderOpenAI:
		if config.APIKey == "" {
			return nil, fmt.Errorf("API key is required for OpenAI provider")
		}

		if config.BaseURL == "" {
			config.BaseURL = "https://api.openai.com/v1"
		}
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}

	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Generate sends the prompt to the configured backend and returns the raw text answer
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	switch c.config.Provider {
	case ProviderOllama:
		return c.generateOllama(ctx, prompt)
	case ProviderOpenAI:
		return c.generateOpenAI(ctx, prompt)
	default:
		return "", fmt.Errorf("unsupported provider: %s", c.config.Provider)
	}
}

// Ollama API structures
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// generateOllama handles Ollama API calls
func (c *Client) generateOllama(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaRequest{
		Model:   c.config.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: ollamaOptions{Temperature: 0.0},
	}

	respBody, err := c.makeRequest(ctx, "/api/generate", reqBody, nil)
	if err != nil {
		return "", err
	}

	var response ollamaResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("failed to parse Ollama response: %w", err)
	}

	if response.Error != "" {
		return "", fmt.Errorf("Ollama API error: %s", response.Error)
	}

	return response.Response, nil
}

// OpenAI API structures
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Error   *openAIError   `json:"error,omitempty"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// generateOpenAI handles OpenAI-compatible API calls
func (c *Client) generateOpenAI(ctx context.Context, prompt string) (string, error) {
	reqBody := openAIRequest{
		Model: c.config.Model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.0,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
	}

	respBody, err := c.makeRequest(ctx, "/chat/completions", reqBody, headers)
	if err != nil {
		return "", err
	}

	var response openAIResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response: %w", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}

// makeRequest makes an HTTP request to the configured backend
func (c *Client) makeRequest(
	ctx context.Context,
	endpoint string,
	reqBody interface{},
	headers map[string]string,
) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
