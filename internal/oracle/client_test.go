package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid ollama config",
			config: Config{Provider: ProviderOllama, Model: "gemma:2b"},
		},
		{
			name:   "valid openai config",
			config: Config{Provider: ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test"},
		},
		{
			name:    "missing model",
			config:  Config{Provider: ProviderOllama},
			wantErr: true,
		},
		{
			name:    "openai without api key",
			config:  Config{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
			wantErr: true,
		},
		{
			name:    "unsupported provider",
			config:  Config{Provider: "anthropic", Model: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(Config{Provider: ProviderOllama, Model: "gemma:2b"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if client.config.BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %q, want default Ollama URL", client.config.BaseURL)
	}

	if client.httpClient.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", client.httpClient.Timeout)
	}
}

func TestGenerate_Ollama(t *testing.T) {
	var gotReq ollamaRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(ollamaResponse{Response: "SELECT 1", Done: true})
	}))
	defer server.Close()

	client, err := NewClient(Config{Provider: ProviderOllama, Model: "gemma:2b", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	answer, err := client.Generate(context.Background(), "test prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if answer != "SELECT 1" {
		t.Errorf("answer = %q, want SELECT 1", answer)
	}

	if gotReq.Model != "gemma:2b" {
		t.Errorf("model = %q, want gemma:2b", gotReq.Model)
	}

	if gotReq.Stream {
		t.Error("streaming must be disabled")
	}

	if gotReq.Options.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", gotReq.Options.Temperature)
	}
}

func TestGenerate_OllamaAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Error: "model not found"})
	}))
	defer server.Close()

	client, err := NewClient(Config{Provider: ProviderOllama, Model: "missing", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Generate(context.Background(), "test"); err == nil {
		t.Error("expected error for Ollama API error response")
	}
}

func TestGenerate_OpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}

		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q, want Bearer sk-test", got)
		}

		json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{Role: "assistant", Content: "SELECT 2"}}},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Provider: ProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
		BaseURL:  server.URL,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	answer, err := client.Generate(context.Background(), "test prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if answer != "SELECT 2" {
		t.Errorf("answer = %q, want SELECT 2", answer)
	}
}

func TestGenerate_OpenAIEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(openAIResponse{})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Provider: ProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
		BaseURL:  server.URL,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Generate(context.Background(), "test"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestGenerate_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(Config{Provider: ProviderOllama, Model: "gemma:2b", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Generate(context.Background(), "test"); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestGenerate_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server only cancels r.Context() on client disconnect after the
		// request body has been consumed; drain it so the handler can unblock.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client, err := NewClient(Config{Provider: ProviderOllama, Model: "gemma:2b", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Generate(ctx, "test"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
