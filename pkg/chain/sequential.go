// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ilkoid/roy-ai/pkg/events"
	"github.com/ilkoid/roy-ai/pkg/utils"
)

// KeyResult — ключ Context, значение которого становится ChainOutput.Result.
const KeyResult = "result"

// Chain представляет последовательность шагов для выполнения запроса.
type Chain interface {
	// AddStep добавляет шаг в конец цепочки.
	AddStep(step Step)

	// Invoke выполняет цепочку и возвращает результат.
	Invoke(ctx context.Context) (ChainOutput, error)

	// Batch выполняет цепочку для каждого набора входных значений.
	// Каждый запрос получает свежую копию контекста.
	Batch(ctx context.Context, requests []map[string]any) ([]ChainOutput, error)

	// Stream запускает выполнение в фоне и возвращает подписку на события.
	Stream(ctx context.Context) events.Subscriber

	// SchemaInfo возвращает описание структуры цепочки.
	SchemaInfo() map[string]any
}

// ChainOutput — результат выполнения цепочки.
type ChainOutput struct {
	// Result — финальный ответ: строковое представление значения
	// Context под ключом KeyResult (пусто, если ключ не установлен).
	Result string

	// StepsRun — количество выполненных шагов.
	StepsRun int

	// Duration — общее время выполнения.
	Duration time.Duration

	// Diagnostics — неразрешённые placeholder'ы, накопленные за прогон.
	Diagnostics []Diagnostic
}

// SequentialChain — базовая реализация Chain: шаги выполняются по порядку.
//
// Выполнение мутирует ChainContext: каждый шаг видит значения,
// положенные в Context предыдущими шагами. Экземпляр не предназначен
// для конкурентных Invoke на одном контексте — Batch для этого создаёт
// свежие контексты на каждый запрос.
type SequentialChain struct {
	chainCtx *ChainContext

	mu      sync.RWMutex
	emitter events.Emitter
}

// Проверка что SequentialChain реализует Chain.
var _ Chain = (*SequentialChain)(nil)

// NewSequentialChain создаёт цепочку с предзаполненным Context.
//
// initial может быть nil — тогда Context создаётся пустым.
func NewSequentialChain(initial map[string]any) *SequentialChain {
	return &SequentialChain{
		chainCtx: NewChainContextWith(initial),
	}
}

// Context возвращает контекст цепочки (Update/GetValue/Resolve* доступны
// вызывающему коду напрямую).
func (c *SequentialChain) Context() *ChainContext {
	return c.chainCtx
}

// AddStep добавляет шаг в конец цепочки.
func (c *SequentialChain) AddStep(step Step) {
	c.chainCtx.AddStep(step)
}

// SetEmitter устанавливает emitter для событий выполнения.
//
// Вызывается до Invoke/Batch. nil отключает события.
func (c *SequentialChain) SetEmitter(emitter events.Emitter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitter = emitter
}

func (c *SequentialChain) getEmitter() events.Emitter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.emitter
}

func (c *SequentialChain) emit(ctx context.Context, event events.Event) {
	if emitter := c.getEmitter(); emitter != nil {
		emitter.Emit(ctx, event)
	}
}

// Invoke выполняет цепочку против её собственного контекста.
func (c *SequentialChain) Invoke(ctx context.Context) (ChainOutput, error) {
	return c.run(ctx, c.chainCtx)
}

// Batch выполняет цепочку для каждого набора входных значений.
//
// Каждый запрос получает свежий ChainContext: снимок базового Context
// плюс значения запроса. Останавливается на первой ошибке, возвращая
// уже полученные результаты вместе с ней.
func (c *SequentialChain) Batch(ctx context.Context, requests []map[string]any) ([]ChainOutput, error) {
	outputs := make([]ChainOutput, 0, len(requests))

	for i, request := range requests {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		fresh := NewChainContextWith(c.chainCtx.Snapshot())
		fresh.Update(request)
		for _, step := range c.chainCtx.Steps() {
			fresh.AddStep(step)
		}

		output, err := c.run(ctx, fresh)
		if err != nil {
			return outputs, fmt.Errorf("batch request %d: %w", i, err)
		}
		outputs = append(outputs, output)
	}

	return outputs, nil
}

// Stream запускает Invoke в фоне и возвращает подписку на события.
//
// Канал событий закрывается после EventDone или EventError.
func (c *SequentialChain) Stream(ctx context.Context) events.Subscriber {
	emitter := events.NewChanEmitter(32)
	c.SetEmitter(emitter)
	sub := emitter.Subscribe()

	go func() {
		defer emitter.Close()

		output, err := c.Invoke(ctx)
		if err != nil {
			emitter.Emit(ctx, events.New(events.EventError, events.ErrorData{Err: err}))
			return
		}
		emitter.Emit(ctx, events.New(events.EventDone, events.MessageData{Content: output.Result}))
	}()

	return sub
}

// SchemaInfo возвращает описание структуры цепочки: тип, имена шагов
// и ключи Context на текущий момент.
func (c *SequentialChain) SchemaInfo() map[string]any {
	steps := c.chainCtx.Steps()
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = step.Name()
	}

	keys := make([]string, 0)
	for k := range c.chainCtx.Snapshot() {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return map[string]any{
		"type":         "sequential",
		"steps":        names,
		"context_keys": keys,
	}
}

// run — общий цикл выполнения шагов против заданного контекста.
func (c *SequentialChain) run(ctx context.Context, chainCtx *ChainContext) (ChainOutput, error) {
	startTime := time.Now()
	stepsRun := 0

	for i, step := range chainCtx.Steps() {
		select {
		case <-ctx.Done():
			return ChainOutput{}, ctx.Err()
		default:
		}

		c.emit(ctx, events.New(events.EventStepStart, events.StepData{StepName: step.Name(), Index: i}))
		stepStart := time.Now()

		result := step.Execute(ctx, chainCtx)
		stepsRun++

		c.emit(ctx, events.New(events.EventStepEnd, events.StepData{
			StepName: step.Name(),
			Index:    i,
			Duration: time.Since(stepStart),
		}))

		if result.Output != nil {
			chainCtx.Update(result.Output)
		}

		switch result.Action {
		case ActionContinue:
			// следующий шаг
		case ActionBreak:
			utils.Debug("chain break", "step", step.Name(), "steps_run", stepsRun)
			return c.finalize(ctx, chainCtx, stepsRun, startTime), nil
		case ActionError:
			err := result.Err
			if err == nil {
				err = fmt.Errorf("step '%s' failed without error detail", step.Name())
			}
			utils.Error("chain step failed", "step", step.Name(), "error", err)
			return ChainOutput{
				StepsRun:    stepsRun,
				Duration:    time.Since(startTime),
				Diagnostics: chainCtx.Diagnostics(),
			}, err
		}
	}

	return c.finalize(ctx, chainCtx, stepsRun, startTime), nil
}

func (c *SequentialChain) finalize(ctx context.Context, chainCtx *ChainContext, stepsRun int, startTime time.Time) ChainOutput {
	diagnostics := chainCtx.Diagnostics()
	for _, d := range diagnostics {
		c.emit(ctx, events.New(events.EventDiagnostic, events.DiagnosticData{
			Expression: d.Expression,
			Err:        d.Err,
		}))
	}

	result := ""
	if v := chainCtx.GetValue(KeyResult); v != nil {
		result = Stringify(v)
	}

	return ChainOutput{
		Result:      result,
		StepsRun:    stepsRun,
		Duration:    time.Since(startTime),
		Diagnostics: diagnostics,
	}
}
