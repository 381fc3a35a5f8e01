package factory

import (
	"testing"

	"github.com/ilkoid/roy-ai/pkg/config"
)

func TestNewLLMProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"openai", false},
		{"deepseek", false},
		{"openrouter", false},
		{"mistral", false},
		{"anthropic", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewLLMProvider(config.ModelDef{
				Provider:  tt.provider,
				ModelName: "test-model",
			})
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewLLMProvider(%q) expected error", tt.provider)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLLMProvider(%q) error = %v", tt.provider, err)
			}
			if p == nil {
				t.Errorf("NewLLMProvider(%q) returned nil provider", tt.provider)
			}
		})
	}
}
