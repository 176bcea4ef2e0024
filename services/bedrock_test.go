package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// mockBedrockClient implements bedrockClient for testing
type mockBedrockClient struct {
	invokeFunc func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

func (m *mockBedrockClient) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	return m.invokeFunc(ctx, params, optFns...)
}

func newTestBedrockService(client bedrockClient) *BedrockService {
	return &BedrockService{
		client:           client,
		model:            "test-model",
		maxTokens:        4096,
		anthropicVersion: "bedrock-2023-05-31",
	}
}

func bedrockReply(body string) *mockBedrockClient {
	return &mockBedrockClient{
		invokeFunc: func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
			return &bedrockruntime.InvokeModelOutput{Body: []byte(body)}, nil
		},
	}
}

func TestClaudeRequest_OmitsEmptyOptionalFields(t *testing.T) {
	req := ClaudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        1024,
		Messages:         []ClaudeMessage{{Role: "user", Content: "Test"}},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal to map: %v", err)
	}
	if _, exists := raw["system"]; exists {
		t.Error("Empty system field should be omitted from JSON")
	}
	if _, exists := raw["temperature"]; exists {
		t.Error("Unset temperature should be omitted from JSON")
	}
}

func TestInvokeWithPrompt_Success(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	var sent ClaudeRequest
	mockClient := &mockBedrockClient{
		invokeFunc: func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
			if *params.ModelId != "test-model" {
				t.Errorf("ModelId = %s, want test-model", *params.ModelId)
			}
			if err := json.Unmarshal(params.Body, &sent); err != nil {
				t.Fatalf("request body is not JSON: %v", err)
			}
			response := `{
				"id": "msg_123",
				"type": "message",
				"role": "assistant",
				"content": [{"type": "text", "text": "{\"summary\":{\"profitFactor\":2.1}}"}],
				"stop_reason": "end_turn"
			}`
			return &bedrockruntime.InvokeModelOutput{Body: []byte(response)}, nil
		},
	}

	service := newTestBedrockService(mockClient)
	result, err := service.InvokeWithPrompt(context.Background(), "extract metrics", "Profit Factor: 2.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"summary":{"profitFactor":2.1}}` {
		t.Errorf("unexpected result: %s", result)
	}
	if sent.System != "extract metrics" {
		t.Errorf("System = %q, want the system prompt", sent.System)
	}
	if sent.AnthropicVersion != "bedrock-2023-05-31" || sent.MaxTokens != 4096 {
		t.Errorf("unexpected request settings: %+v", sent)
	}
	if len(sent.Messages) != 1 || sent.Messages[0].Role != "user" {
		t.Errorf("expected a single user message, got %+v", sent.Messages)
	}
}

func TestInvokeWithPrompt_JoinsTextBlocks(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	service := newTestBedrockService(bedrockReply(`{
		"content": [
			{"type": "text", "text": "{\"risk\":"},
			{"type": "tool_use", "text": "ignored"},
			{"type": "text", "text": "{\"mfe\":150}}"}
		]
	}`))

	result, err := service.InvokeWithPrompt(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"risk":{"mfe":150}}` {
		t.Errorf("unexpected result: %s", result)
	}
}

func TestInvokeWithPrompt_Errors(t *testing.T) {
	tests := []struct {
		name    string
		client  *mockBedrockClient
		wantErr string
	}{
		{
			name: "api error",
			client: &mockBedrockClient{
				invokeFunc: func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
					return nil, errors.New("API error")
				},
			},
			wantErr: "failed to invoke model",
		},
		{name: "invalid json", client: bedrockReply(`{invalid json`), wantErr: "failed to unmarshal response"},
		{name: "empty content", client: bedrockReply(`{"content": []}`), wantErr: "empty response from model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

			_, err := newTestBedrockService(tt.client).InvokeWithPrompt(context.Background(), "system", "user")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInvokeWithPrompt_CanceledContext(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	called := false
	mockClient := &mockBedrockClient{
		invokeFunc: func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
			called = true
			return nil, ctx.Err()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBedrockService(mockClient).InvokeWithPrompt(ctx, "system", "user")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("client should not be called with a canceled context")
	}
}
