package tools

import (
	"context"
	"strings"
	"testing"
)

func objSchema() JSONSchema {
	return JSONSchema{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
		},
		"required": []any{"query"},
	}
}

func echoTool(name string) Tool {
	return NewFuncTool(
		ToolDefinition{Name: name, Description: "echo", Parameters: objSchema()},
		func(ctx context.Context, argsJSON string) (string, error) {
			return argsJSON, nil
		},
	)
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tool, ok := reg.Get("echo")
	if !ok {
		t.Fatal("Get(echo) = not found")
	}
	if tool.Definition().Name != "echo" {
		t.Errorf("Definition().Name = %q, want %q", tool.Definition().Name, "echo")
	}

	if _, ok := reg.Get("missing"); ok {
		t.Error("Get(missing) should not find a tool")
	}
}

func TestRegistryValidation(t *testing.T) {
	tests := []struct {
		name    string
		def     ToolDefinition
		wantErr string
	}{
		{
			name:    "empty name",
			def:     ToolDefinition{Name: "", Parameters: objSchema()},
			wantErr: "name cannot be empty",
		},
		{
			name:    "nil parameters",
			def:     ToolDefinition{Name: "t", Parameters: nil},
			wantErr: "parameters cannot be nil",
		},
		{
			name:    "missing type field",
			def:     ToolDefinition{Name: "t", Parameters: JSONSchema{"properties": map[string]any{}}},
			wantErr: "must have 'type' field",
		},
		{
			name:    "wrong type value",
			def:     ToolDefinition{Name: "t", Parameters: JSONSchema{"type": "array"}},
			wantErr: "must be 'object'",
		},
		{
			name: "required not array",
			def: ToolDefinition{Name: "t", Parameters: JSONSchema{
				"type":     "object",
				"required": "query",
			}},
			wantErr: "must be an array",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			tool := NewFuncTool(tt.def, func(ctx context.Context, args string) (string, error) {
				return "", nil
			})

			err := reg.Register(tool)
			if err == nil {
				t.Fatal("Register() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Register() error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestRegistryDefinitionsOrder(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(echoTool(name)); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	defs := reg.Definitions()
	want := []string{"alpha", "mid", "zeta"}

	if len(defs) != len(want) {
		t.Fatalf("Definitions() len = %d, want %d", len(defs), len(want))
	}
	for i, def := range defs {
		if def.Name != want[i] {
			t.Errorf("Definitions()[%d].Name = %q, want %q", i, def.Name, want[i])
		}
	}
}

func TestRegistryExecute(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := reg.Execute(context.Background(), "echo", `{"query":"hi"}`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != `{"query":"hi"}` {
		t.Errorf("Execute() = %q, want %q", result, `{"query":"hi"}`)
	}

	if _, err := reg.Execute(context.Background(), "nope", "{}"); err == nil {
		t.Error("Execute(nope) expected error for unregistered tool")
	}
}
