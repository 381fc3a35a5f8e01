// Package agent реализует AI агента с циклом вызова инструментов.
//
// Агент связывает три компонента: LLM провайдера, реестр инструментов
// и историю диалога. Цикл выполнения:
//
//	запрос → LLM → tool calls? → выполнить tools → LLM → ... → ответ
//
// Basic usage:
//
//	a := agent.New(provider, registry)
//	answer, _ := a.Run(ctx, "Какая погода в Москве?")
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ilkoid/roy-ai/pkg/conversation"
	"github.com/ilkoid/roy-ai/pkg/events"
	"github.com/ilkoid/roy-ai/pkg/llm"
	"github.com/ilkoid/roy-ai/pkg/tools"
	"github.com/ilkoid/roy-ai/pkg/utils"
)

// DefaultMaxIterations — лимит итераций цикла по умолчанию.
// Защита от бесконечного пинг-понга LLM ↔ tools.
const DefaultMaxIterations = 10

// Agent — AI агент с поддержкой Function Calling.
//
// Thread-safe: все методы безопасны для параллельного вызова,
// но история диалога общая — параллельные Run перемешают её.
type Agent struct {
	provider llm.Provider
	registry *tools.Registry
	conv     *conversation.Conversation

	maxIterations int

	// Port & Adapter: агент шлёт события в абстрактный Emitter,
	// UI подписывается через Subscriber
	emitter   events.Emitter
	emitterMu sync.RWMutex
}

// Option настраивает агента при создании.
type Option func(*Agent)

// WithSystemPrompt задает системный промпт диалога.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.conv.SetSystemPrompt(prompt)
	}
}

// WithMaxIterations переопределяет лимит итераций цикла.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithConversation подставляет готовую историю (например, из store).
func WithConversation(conv *conversation.Conversation) Option {
	return func(a *Agent) {
		if conv != nil {
			a.conv = conv
		}
	}
}

// New создает агента с указанным провайдером и реестром инструментов.
func New(provider llm.Provider, registry *tools.Registry, opts ...Option) *Agent {
	a := &Agent{
		provider:      provider,
		registry:      registry,
		conv:          conversation.New(),
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetEmitter устанавливает emitter для отправки событий. Thread-safe.
func (a *Agent) SetEmitter(emitter events.Emitter) {
	a.emitterMu.Lock()
	defer a.emitterMu.Unlock()
	a.emitter = emitter
}

// Conversation возвращает историю диалога агента.
func (a *Agent) Conversation() *conversation.Conversation {
	return a.conv
}

// Run выполняет запрос пользователя через цикл LLM ↔ tools.
//
// Алгоритм:
//  1. Добавляет запрос в историю
//  2. Вызывает LLM с определениями всех зарегистрированных инструментов
//  3. Если модель запросила tool calls — выполняет их через Registry,
//     добавляет результаты в историю и возвращается к шагу 2
//  4. Обычный текстовый ответ завершает цикл
//
// Ошибка инструмента не прерывает цикл: текст ошибки отправляется
// модели как результат, давая ей шанс скорректировать вызов.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	utils.Info("Agent run started", "query_length", len(query))
	a.conv.AddUserMessage(query)

	defs := a.registry.Definitions()

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		response, err := a.provider.Generate(ctx, a.conv.Messages(), llm.WithTools(defs))
		if err != nil {
			a.emit(ctx, events.EventError, events.ErrorData{Err: err})
			return "", fmt.Errorf("llm generate (iteration %d): %w", iteration, err)
		}

		if !response.HasToolCalls() {
			a.conv.AddMessage(response)
			a.emit(ctx, events.EventMessage, events.MessageData{Content: response.Content})
			a.emit(ctx, events.EventDone, events.MessageData{Content: response.Content})
			utils.Info("Agent run completed",
				"iterations", iteration,
				"answer_length", len(response.Content))
			return response.Content, nil
		}

		// Сообщение с tool calls обязано попасть в историю до результатов
		a.conv.AddMessage(response)
		a.executeToolCalls(ctx, response.ToolCalls)
	}

	err := fmt.Errorf("max iterations (%d) reached without final answer", a.maxIterations)
	a.emit(ctx, events.EventError, events.ErrorData{Err: err})
	return "", err
}

// executeToolCalls выполняет все запрошенные вызовы и складывает
// результаты в историю.
func (a *Agent) executeToolCalls(ctx context.Context, calls []llm.ToolCall) {
	for _, call := range calls {
		a.emit(ctx, events.EventToolCall, events.ToolCallData{
			ToolName: call.Name,
			Args:     call.Args,
		})

		startTime := time.Now()
		result, err := a.registry.Execute(ctx, call.Name, call.Args)
		if err != nil {
			utils.Error("Tool execution failed", "tool", call.Name, "error", err)
			// Fail-soft: модель получает текст ошибки и может исправиться
			result = fmt.Sprintf("error: %v", err)
		}

		a.emit(ctx, events.EventToolResult, events.ToolResultData{
			ToolName: call.Name,
			Result:   result,
			Duration: time.Since(startTime),
		})
		utils.Debug("Tool executed",
			"tool", call.Name,
			"is_error", err != nil,
			"duration_ms", time.Since(startTime).Milliseconds())

		a.conv.AddMessage(llm.NewToolMessage(call.ID, call.Name, result))
	}
}

// emit отправляет событие если emitter установлен. Thread-safe.
func (a *Agent) emit(ctx context.Context, t events.EventType, data events.EventData) {
	a.emitterMu.RLock()
	defer a.emitterMu.RUnlock()
	if a.emitter == nil {
		return
	}
	a.emitter.Emit(ctx, events.New(t, data))
}
