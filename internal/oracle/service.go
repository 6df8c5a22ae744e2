package oracle

import (
	"context"
	"time"
)

// Service defines the prompt-in, text-out contract the pipeline depends on
type Service interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config represents oracle client configuration
type Config struct {
	Provider string        `json:"provider"` // ollama, openai
	Model    string        `json:"model"`
	BaseURL  string        `json:"base_url,omitempty"`
	APIKey   string        `json:"api_key,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}

// Provider constants for the supported backends
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)
