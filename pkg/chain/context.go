// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"fmt"
	"strings"
	"sync"
)

// Context — хранилище значений, против которого разрешаются шаблоны.
//
// Ключи уникальны, порядок вставки не важен. Мутация только через
// merge-обновление (Update), поэлементного удаления нет.
type Context map[string]any

// ChainContext содержит состояние выполнения цепочки: упорядоченный
// список шагов, Context и накопленные диагностики разрешения шаблонов.
//
// Thread-safe через sync.RWMutex.
// Все изменения состояния должны проходить через методы этого типа.
//
// Контракт: каждый ResolveFString читает Context на момент вызова,
// никакого кэширования — один шаблон может давать разные результаты
// если Context изменился между вызовами.
type ChainContext struct {
	mu sync.RWMutex

	steps       []Step
	context     Context
	diagnostics []Diagnostic
}

// NewChainContext создаёт пустой контекст выполнения цепочки.
func NewChainContext() *ChainContext {
	return &ChainContext{
		context: make(Context),
	}
}

// NewChainContextWith создаёт контекст, предзаполненный значениями initial.
//
// initial копируется: дальнейшие изменения исходной map не видны контексту.
func NewChainContextWith(initial map[string]any) *ChainContext {
	c := NewChainContext()
	c.Update(initial)
	return c
}

// Update сливает пары ключ-значение в Context, перезаписывая
// существующие ключи. Всегда успешен.
func (c *ChainContext) Update(kv map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range kv {
		c.context[k] = v
	}
}

// GetValue возвращает значение ключа или nil если ключ отсутствует.
//
// Никогда не возвращает ошибку: отсутствие ключа — штатная ситуация.
func (c *ChainContext) GetValue(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.context[key]
}

// Snapshot возвращает копию текущего Context (для дебага и SchemaInfo).
func (c *ChainContext) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]any, len(c.context))
	for k, v := range c.context {
		snapshot[k] = v
	}
	return snapshot
}

// lookup — read-only окружение для вычислителя выражений.
func (c *ChainContext) lookup(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.context[name]
	return v, ok
}

// AddStep добавляет шаг в конец цепочки.
func (c *ChainContext) AddStep(step Step) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.steps = append(c.steps, step)
}

// Steps возвращает копию списка шагов (порядок добавления сохраняется).
func (c *ChainContext) Steps() []Step {
	c.mu.RLock()
	defer c.mu.RUnlock()

	steps := make([]Step, len(c.steps))
	copy(steps, c.steps)
	return steps
}

// Diagnostics возвращает копию накопленных диагностик разрешения шаблонов.
func (c *ChainContext) Diagnostics() []Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()

	diags := make([]Diagnostic, len(c.diagnostics))
	copy(diags, c.diagnostics)
	return diags
}

// ClearDiagnostics сбрасывает накопленные диагностики.
func (c *ChainContext) ClearDiagnostics() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diagnostics = nil
}

func (c *ChainContext) addDiagnostic(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diagnostics = append(c.diagnostics, d)
}

// String возвращает строковое представление контекста (для дебага).
func (c *ChainContext) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("ChainContext{")
	sb.WriteString(fmt.Sprintf("Steps: %d, ", len(c.steps)))
	sb.WriteString(fmt.Sprintf("Keys: %d", len(c.context)))
	if len(c.diagnostics) > 0 {
		sb.WriteString(fmt.Sprintf(", Diagnostics: %d", len(c.diagnostics)))
	}
	sb.WriteString("}")

	return sb.String()
}
