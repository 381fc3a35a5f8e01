// Интерфейс Tool и структуры определений.

package tools

import "context"

// JSONSchema представляет JSON Schema для параметров инструмента.
//
// Используется вместо interface{} для типобезопасности.
// Формат соответствует JSON Schema specification для Function Calling API.
type JSONSchema map[string]any

// ToolDefinition описывает инструмент для LLM (Function Calling API format).
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"` // JSON Schema объекта аргументов
}

// Tool — контракт, который должен реализовать любой инструмент.
//
// "Raw In, String Out": инструмент принимает сырой JSON от LLM
// и возвращает строку (обычно JSON) для подстановки в диалог.
type Tool interface {
	// Definition возвращает описание инструмента для LLM.
	Definition() ToolDefinition

	// Execute выполняет логику инструмента.
	// argsJSON — это сырой JSON с аргументами, который прислала LLM.
	Execute(ctx context.Context, argsJSON string) (string, error)
}

// FuncTool — функциональная обёртка для простых инструментов.
//
// Позволяет регистрировать инструмент без отдельной структуры:
//
//	reg.Register(tools.NewFuncTool(def, func(ctx context.Context, args string) (string, error) {
//	    return "ok", nil
//	}))
type FuncTool struct {
	def ToolDefinition
	fn  func(ctx context.Context, argsJSON string) (string, error)
}

// NewFuncTool создаёт инструмент из определения и функции.
func NewFuncTool(def ToolDefinition, fn func(ctx context.Context, argsJSON string) (string, error)) *FuncTool {
	return &FuncTool{def: def, fn: fn}
}

// Definition возвращает описание инструмента.
func (t *FuncTool) Definition() ToolDefinition {
	return t.def
}

// Execute вызывает обёрнутую функцию.
func (t *FuncTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	return t.fn(ctx, argsJSON)
}
