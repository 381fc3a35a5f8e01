// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"fmt"
	"testing"
)

// TestNextActionString verifies String() method for NextAction.
func TestNextActionString(t *testing.T) {
	tests := []struct {
		action   NextAction
		expected string
	}{
		{ActionContinue, "Continue"},
		{ActionBreak, "Break"},
		{ActionError, "Error"},
		{NextAction(999), "Unknown(999)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.action.String(); got != tt.expected {
				t.Errorf("String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestStepResultWithError verifies WithError helper method.
func TestStepResultWithError(t *testing.T) {
	baseResult := StepResult{
		Action: ActionContinue,
		Output: map[string]any{"k": 1},
	}

	err := fmt.Errorf("test error")
	result := baseResult.WithError(err)

	if result.Action != ActionError {
		t.Errorf("Action = %v, want %v", result.Action, ActionError)
	}
	if result.Err != err {
		t.Errorf("Err = %v, want %v", result.Err, err)
	}
	if len(result.Output) != 1 {
		t.Errorf("Output lost on WithError: %v", result.Output)
	}
}

// TestStepResultZeroValue verifies zero value of StepResult.
func TestStepResultZeroValue(t *testing.T) {
	var result StepResult

	if result.Action != ActionContinue {
		t.Errorf("Zero value Action = %v, want %v", result.Action, ActionContinue)
	}
	if result.Err != nil {
		t.Errorf("Zero value Err = %v, want nil", result.Err)
	}
}

func TestStepFunc(t *testing.T) {
	step := NewStepFunc("probe", func(ctx context.Context, c *ChainContext) StepResult {
		return StepResult{Output: map[string]any{"probe": "ok"}}
	})

	if step.Name() != "probe" {
		t.Errorf("Name() = %q, want %q", step.Name(), "probe")
	}

	result := step.Execute(context.Background(), NewChainContext())
	if result.Output["probe"] != "ok" {
		t.Errorf("Output = %v, want probe=ok", result.Output)
	}
}

func TestCallStepMaterializesArgs(t *testing.T) {
	chainCtx := NewChainContextWith(map[string]any{"city": "Москва", "count": 3})

	var received map[string]any
	step := NewCallStep("search",
		func(ctx context.Context, args map[string]any) (map[string]any, error) {
			received = args
			return map[string]any{"found": true}, nil
		},
		map[string]any{
			"query": "weather in {city}",
			"limit": "{count}",
			"raw":   42,
		},
	)

	result := step.Execute(context.Background(), chainCtx)
	if result.Action != ActionContinue {
		t.Fatalf("Action = %v, want Continue", result.Action)
	}

	if received["query"] != "weather in Москва" {
		t.Errorf("args[query] = %v, want resolved template", received["query"])
	}
	if received["limit"] != "3" {
		t.Errorf("args[limit] = %v, want %q", received["limit"], "3")
	}
	if received["raw"] != 42 {
		t.Errorf("args[raw] = %v, want identity for non-strings", received["raw"])
	}
	if result.Output["found"] != true {
		t.Errorf("Output = %v, want found=true", result.Output)
	}
}

func TestCallStepLateBinding(t *testing.T) {
	chainCtx := NewChainContext()

	var received map[string]any
	step := NewCallStep("late",
		func(ctx context.Context, args map[string]any) (map[string]any, error) {
			received = args
			return nil, nil
		},
		map[string]any{"v": "{key}"},
	)

	// Значение появляется в Context уже после конструирования шага
	chainCtx.Update(map[string]any{"key": "late-bound"})

	step.Execute(context.Background(), chainCtx)
	if received["v"] != "late-bound" {
		t.Errorf("args[v] = %v, want value bound at execute time", received["v"])
	}
}

func TestCallStepError(t *testing.T) {
	step := NewCallStep("boom",
		func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return nil, fmt.Errorf("tool unavailable")
		},
		nil,
	)

	result := step.Execute(context.Background(), NewChainContext())
	if result.Action != ActionError {
		t.Errorf("Action = %v, want Error", result.Action)
	}
	if result.Err == nil {
		t.Error("Err = nil, want wrapped error")
	}
}
