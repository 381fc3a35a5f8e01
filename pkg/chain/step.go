// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"fmt"
)

// NextAction определяет поведение Chain после выполнения Step.
type NextAction int

const (
	// ActionContinue — продолжить выполнение следующего Step.
	ActionContinue NextAction = iota

	// ActionBreak — прервать выполнение Chain и вернуть результат.
	ActionBreak

	// ActionError — прервать выполнение с ошибкой.
	ActionError
)

// String возвращает строковое представление NextAction (для дебага).
func (a NextAction) String() string {
	switch a {
	case ActionContinue:
		return "Continue"
	case ActionBreak:
		return "Break"
	case ActionError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// StepResult — результат выполнения одного Step.
type StepResult struct {
	// Action — что делать дальше (continue/break/error).
	Action NextAction

	// Output — значения для merge в Context после шага.
	// nil — шаг ничего не кладёт в Context.
	Output map[string]any

	// Err — ошибка выполнения (для ActionError).
	Err error
}

// WithError помечает результат как ошибочный.
func (r StepResult) WithError(err error) StepResult {
	r.Action = ActionError
	r.Err = err
	return r
}

// String возвращает строковое представление StepResult (для дебага).
func (r StepResult) String() string {
	return fmt.Sprintf("StepResult{Action: %s, Keys: %d, Err: %v}", r.Action, len(r.Output), r.Err)
}

// Step представляет атомарный шаг выполнения Chain.
//
// Step является изолированным, тестируемым и переиспользуемым компонентом.
// Каждый Step работает с ChainContext через thread-safe методы.
//
// Шаг НЕ должен писать в Context напрямую: значения возвращаются через
// StepResult.Output и сливаются в Context исполнителем цепочки.
type Step interface {
	// Name возвращает уникальное имя Step (для логирования и событий).
	Name() string

	// Execute выполняет Step и возвращает StepResult.
	Execute(ctx context.Context, chainCtx *ChainContext) StepResult
}

// StepFunc — функциональная обёртка для простых Step.
//
// Позволяет создавать Step на лету без структур:
//
//	step := chain.NewStepFunc("greet", func(ctx context.Context, c *chain.ChainContext) chain.StepResult {
//	    return chain.StepResult{Output: map[string]any{"greeting": "hello"}}
//	})
type StepFunc struct {
	name string
	fn   func(context.Context, *ChainContext) StepResult
}

// Name возвращает имя StepFunc.
func (s StepFunc) Name() string {
	return s.name
}

// Execute выполняет функцию StepFunc.
func (s StepFunc) Execute(ctx context.Context, chainCtx *ChainContext) StepResult {
	return s.fn(ctx, chainCtx)
}

// NewStepFunc создаёт новый StepFunc из функции.
func NewStepFunc(name string, fn func(context.Context, *ChainContext) StepResult) Step {
	return StepFunc{
		name: name,
		fn:   fn,
	}
}

// CallFunc — вызываемая логика декларативного шага.
// Получает материализованные (после разрешения шаблонов) аргументы.
type CallFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// CallStep — декларативный шаг: функция плюс map аргументов-шаблонов.
//
// Перед вызовом функции аргументы материализуются через
// ChainContext.ResolvePlaceholders — то есть читают Context на момент
// выполнения шага, а не на момент конструирования цепочки.
type CallStep struct {
	name string
	fn   CallFunc
	args map[string]any
}

// NewCallStep создаёт CallStep.
//
// args может содержать {expression} placeholder'ы в строковых значениях
// на любой глубине вложенности (map/slice).
func NewCallStep(name string, fn CallFunc, args map[string]any) *CallStep {
	return &CallStep{name: name, fn: fn, args: args}
}

// Name возвращает имя шага.
func (s *CallStep) Name() string {
	return s.name
}

// Execute материализует аргументы и вызывает функцию шага.
func (s *CallStep) Execute(ctx context.Context, chainCtx *ChainContext) StepResult {
	materialized, _ := chainCtx.ResolvePlaceholders(s.args).(map[string]any)
	if materialized == nil {
		materialized = map[string]any{}
	}

	output, err := s.fn(ctx, materialized)
	if err != nil {
		return StepResult{}.WithError(fmt.Errorf("step '%s': %w", s.name, err))
	}

	return StepResult{Action: ActionContinue, Output: output}
}
