// Package conversation управляет историей диалога с LLM.
//
// Conversation хранит сообщения, закрепляет системный промпт и
// ограничивает размер окна истории. Персистентность вынесена
// в подпакет store.
package conversation

import (
	"sync"

	"github.com/ilkoid/roy-ai/pkg/llm"
)

// Conversation — thread-safe история диалога.
//
// Системный промпт хранится отдельно от истории: он всегда идёт
// первым сообщением и не вытесняется при обрезке окна.
type Conversation struct {
	mu sync.RWMutex

	systemPrompt string
	messages     []llm.Message

	// maxWindow ограничивает количество сообщений истории
	// (без учёта системного промпта). 0 — без лимита.
	maxWindow int
}

// New создает пустой диалог без лимита окна.
func New() *Conversation {
	return &Conversation{}
}

// NewWithSystem создает диалог с закреплённым системным промптом.
func NewWithSystem(systemPrompt string) *Conversation {
	return &Conversation{systemPrompt: systemPrompt}
}

// SetSystemPrompt заменяет системный промпт.
func (c *Conversation) SetSystemPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.systemPrompt = prompt
}

// SystemPrompt возвращает текущий системный промпт.
func (c *Conversation) SystemPrompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.systemPrompt
}

// SetMaxWindow задает лимит сообщений истории. 0 — без лимита.
func (c *Conversation) SetMaxWindow(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxWindow = n
	c.trimLocked()
}

// AddMessage добавляет сообщение в историю.
func (c *Conversation) AddMessage(msg llm.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	c.trimLocked()
}

// AddUserMessage — шорткат для добавления сообщения пользователя.
func (c *Conversation) AddUserMessage(content string) {
	c.AddMessage(llm.NewUserMessage(content))
}

// AddAssistantMessage — шорткат для добавления ответа ассистента.
func (c *Conversation) AddAssistantMessage(content string) {
	c.AddMessage(llm.NewAssistantMessage(content))
}

// trimLocked обрезает историю до maxWindow сообщений.
// Вызывается только под мьютексом.
func (c *Conversation) trimLocked() {
	if c.maxWindow <= 0 || len(c.messages) <= c.maxWindow {
		return
	}
	// Отбрасываем самые старые сообщения
	c.messages = c.messages[len(c.messages)-c.maxWindow:]

	// Висячие tool-ответы в начале окна ломают API провайдеров:
	// tool сообщение должно следовать за assistant с tool_calls.
	for len(c.messages) > 0 && c.messages[0].Role == llm.RoleTool {
		c.messages = c.messages[1:]
	}
}

// Messages возвращает полный список сообщений для отправки в LLM:
// системный промпт (если есть) + история. Возвращается копия.
func (c *Conversation) Messages() []llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]llm.Message, 0, len(c.messages)+1)
	if c.systemPrompt != "" {
		result = append(result, llm.NewSystemMessage(c.systemPrompt))
	}
	result = append(result, c.messages...)
	return result
}

// History возвращает копию истории без системного промпта.
func (c *Conversation) History() []llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]llm.Message, len(c.messages))
	copy(result, c.messages)
	return result
}

// Last возвращает последнее сообщение истории.
// Второе значение false — история пуста.
func (c *Conversation) Last() (llm.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return llm.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Len возвращает количество сообщений истории (без системного промпта).
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Clear очищает историю. Системный промпт сохраняется.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
