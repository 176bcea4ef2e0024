package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"scholar-score/config"

	"github.com/openai/openai-go"
)

// mockOpenAIClient implements openaiClient for testing
type mockOpenAIClient struct {
	completionFunc func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return m.completionFunc(ctx, params)
}

func newTestOpenAIService(client openaiClient) *OpenAIService {
	return &OpenAIService{
		client:      client,
		model:       "gpt-4o-mini",
		maxTokens:   4096,
		temperature: 0.1,
	}
}

func completionWith(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestNewOpenAIService_MissingAPIKey(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OpenAI.APIKey = ""

	_, err := NewOpenAIService(cfg)
	if err == nil {
		t.Fatal("expected error when API key is missing")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY is required") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestNewOpenAIService_WithAPIKey(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OpenAI.APIKey = "test-api-key"
	cfg.OpenAI.BaseURL = "http://localhost:11434/v1"
	cfg.OpenAI.Model = "gpt-4o"
	cfg.OpenAI.MaxTokens = 2048
	cfg.Extraction.Temperature = 0

	service, err := NewOpenAIService(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service.model != "gpt-4o" {
		t.Errorf("model = %s, want gpt-4o", service.model)
	}
	if service.maxTokens != 2048 {
		t.Errorf("maxTokens = %d, want 2048", service.maxTokens)
	}
	if service.temperature != 0 {
		t.Errorf("temperature = %v, want 0", service.temperature)
	}
}

func TestOpenAIInvokeWithPrompt_Success(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	var captured openai.ChatCompletionNewParams
	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			captured = params
			return completionWith(`{"summary":{"profitFactor":1.5}}`), nil
		},
	}

	service := newTestOpenAIService(mockClient)
	result, err := service.InvokeWithPrompt(context.Background(), "extract metrics", "Profit Factor: 1.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"summary":{"profitFactor":1.5}}` {
		t.Errorf("unexpected result: %s", result)
	}
	if string(captured.Model) != "gpt-4o-mini" {
		t.Errorf("model = %s, want gpt-4o-mini", captured.Model)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].OfSystem == nil {
		t.Error("first message should be the system prompt")
	}
	if captured.Messages[1].OfUser == nil {
		t.Error("second message should be the user prompt")
	}
	if captured.Temperature.Value != 0.1 {
		t.Errorf("temperature = %v, want 0.1", captured.Temperature.Value)
	}
}

func TestOpenAIInvokeWithPrompt_APIError(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return nil, errors.New("API rate limit exceeded")
		},
	}

	service := newTestOpenAIService(mockClient)
	_, err := service.InvokeWithPrompt(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "failed to invoke OpenAI") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpenAIInvokeWithPrompt_EmptyResponses(t *testing.T) {
	tests := []struct {
		name       string
		completion *openai.ChatCompletion
		wantErr    string
	}{
		{"no choices", &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}}, "empty response"},
		{"blank content", completionWith("  \n"), "no content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))
			mockClient := &mockOpenAIClient{
				completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
					return tt.completion, nil
				},
			}

			_, err := newTestOpenAIService(mockClient).InvokeWithPrompt(context.Background(), "system", "user")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOpenAIInvokeWithPrompt_CircuitOpens(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	calls := 0
	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			calls++
			return nil, errors.New("connection refused")
		},
	}
	service := newTestOpenAIService(mockClient)

	for i := 0; i < 5; i++ {
		_, _ = service.InvokeWithPrompt(context.Background(), "system", "user")
	}

	_, err := service.InvokeWithPrompt(context.Background(), "system", "user")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 upstream calls before the breaker opened, got %d", calls)
	}
}

func TestCategorizeAPIError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("request timeout"), "timeout"},
		{errors.New("429 Too Many Requests"), "rate_limit"},
		{errors.New("401 Unauthorized"), "auth_error"},
		{errors.New("connection reset by peer"), "connection_error"},
		{errors.New("something else"), "unknown"},
	}

	for _, tt := range tests {
		if got := categorizeAPIError(tt.err); got != tt.want {
			t.Errorf("categorizeAPIError(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
