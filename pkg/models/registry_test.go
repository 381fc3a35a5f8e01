package models

import (
	"context"
	"testing"

	"github.com/ilkoid/roy-ai/pkg/config"
	"github.com/ilkoid/roy-ai/pkg/llm"
)

type nopProvider struct{}

func (nopProvider) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	return llm.NewAssistantMessage("ok"), nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	def := config.ModelDef{Provider: "openai", ModelName: "gpt-4o"}

	if err := r.Register("gpt", def, nopProvider{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("gpt", def, nopProvider{}); err == nil {
		t.Error("Register() duplicate alias expected error")
	}

	p, gotDef, err := r.Get("gpt")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p == nil || gotDef.ModelName != "gpt-4o" {
		t.Errorf("Get() = %v, %v", p, gotDef)
	}

	if _, _, err := r.Get("ghost"); err == nil {
		t.Error("Get(ghost) expected error")
	}
}

func TestRegistryGetWithFallback(t *testing.T) {
	r := NewRegistry()
	def := config.ModelDef{Provider: "openai", ModelName: "gpt-4o"}
	if err := r.Register("default", def, nopProvider{}); err != nil {
		t.Fatal(err)
	}

	_, _, alias, err := r.GetWithFallback("missing", "default")
	if err != nil {
		t.Fatalf("GetWithFallback() error = %v", err)
	}
	if alias != "default" {
		t.Errorf("alias = %q, want fallback", alias)
	}

	if _, _, _, err := r.GetWithFallback("a", "b"); err == nil {
		t.Error("GetWithFallback() with no matches expected error")
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := &config.AppConfig{
		Models: config.ModelsConfig{
			Definitions: map[string]config.ModelDef{
				"gpt":     {Provider: "openai", ModelName: "gpt-4o"},
				"mistral": {Provider: "mistral", ModelName: "mistral-large-latest"},
			},
		},
	}

	r, err := NewRegistryFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewRegistryFromConfig() error = %v", err)
	}

	names := r.ListNames()
	if len(names) != 2 || names[0] != "gpt" || names[1] != "mistral" {
		t.Errorf("ListNames() = %v, want sorted [gpt mistral]", names)
	}
}

func TestNewRegistryFromConfigUnknownProvider(t *testing.T) {
	cfg := &config.AppConfig{
		Models: config.ModelsConfig{
			Definitions: map[string]config.ModelDef{
				"bad": {Provider: "unknown", ModelName: "x"},
			},
		},
	}

	if _, err := NewRegistryFromConfig(cfg); err == nil {
		t.Error("NewRegistryFromConfig() expected error for unknown provider")
	}
}
