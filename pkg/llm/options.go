// Функциональные опции генерации.
//
// Параметры задаются при создании клиента (из config.yaml) и могут
// переопределяться в runtime на каждый вызов Generate.
package llm

import "github.com/ilkoid/roy-ai/pkg/tools"

// GenerateOptions — параметры одного вызова генерации.
type GenerateOptions struct {
	// Model — идентификатор модели (например, "gpt-4o", "mistral-large-latest").
	Model string

	// Temperature управляет случайностью ответа (0.0 — детерминированный).
	Temperature float64

	// MaxTokens ограничивает длину ответа. 0 — лимит провайдера.
	MaxTokens int

	// Format — формат ответа ("json_object" или пустая строка).
	Format string

	// Tools — определения инструментов для Function Calling.
	// Пустой список — обычная генерация без инструментов.
	Tools []tools.ToolDefinition
}

// GenerateOption — функциональная опция для GenerateOptions.
type GenerateOption func(*GenerateOptions)

// ApplyOptions собирает GenerateOptions из списка опций.
func ApplyOptions(opts ...GenerateOption) GenerateOptions {
	var o GenerateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithModel переопределяет модель на этот вызов.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithTemperature переопределяет температуру на этот вызов.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens переопределяет лимит токенов на этот вызов.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// WithFormat задаёт формат ответа. "json_object" — структурированный JSON.
func WithFormat(format string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Format = format
	}
}

// WithJSONFormat включает структурированный JSON ответ.
func WithJSONFormat() GenerateOption {
	return WithFormat("json_object")
}

// WithTools передаёт определения инструментов для Function Calling.
func WithTools(defs []tools.ToolDefinition) GenerateOption {
	return func(o *GenerateOptions) {
		o.Tools = defs
	}
}
