// Package mistral реализует адаптер LLM провайдера для Mistral AI.
//
// Mistral API совместим с OpenAI Chat Completions, поэтому адаптер
// переиспользует OpenAI клиент с другим BaseURL. Отличия API
// (диапазон temperature, отсутствие Vision у tool-моделей)
// обрабатываются здесь.
package mistral

import (
	"context"

	"github.com/ilkoid/roy-ai/pkg/config"
	"github.com/ilkoid/roy-ai/pkg/llm"
	openaiadapter "github.com/ilkoid/roy-ai/pkg/llm/openai"
)

// DefaultBaseURL — endpoint Mistral AI (OpenAI-совместимый).
const DefaultBaseURL = "https://api.mistral.ai/v1"

// Client реализует llm.Provider и llm.StreamingProvider для Mistral AI.
type Client struct {
	inner *openaiadapter.Client
}

var (
	_ llm.Provider          = (*Client)(nil)
	_ llm.StreamingProvider = (*Client)(nil)
)

// NewClient создает Mistral клиент на основе конфигурации модели.
// Если BaseURL не задан в конфигурации, используется DefaultBaseURL.
func NewClient(modelDef config.ModelDef) *Client {
	if modelDef.BaseURL == "" {
		modelDef.BaseURL = DefaultBaseURL
	}
	// Mistral принимает temperature только в диапазоне [0, 1]
	if modelDef.Temperature > 1.0 {
		modelDef.Temperature = 1.0
	}
	return &Client{inner: openaiadapter.NewClient(modelDef)}
}

// Generate выполняет запрос к Mistral API.
// Tool calling работает идентично OpenAI (mistral-large и новее).
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	return c.inner.Generate(ctx, sanitize(messages), opts...)
}

// GenerateStream выполняет потоковый запрос к Mistral API.
func (c *Client) GenerateStream(ctx context.Context, messages []llm.Message, onChunk func(chunk string), opts ...llm.GenerateOption) (llm.Message, error) {
	return c.inner.GenerateStream(ctx, sanitize(messages), onChunk, opts...)
}

// sanitize убирает из сообщений то, что Mistral tool-модели не принимают.
// Картинки поддерживает только pixtral, поэтому для chat/tool моделей
// они отбрасываются вместо ошибки API.
func sanitize(messages []llm.Message) []llm.Message {
	needsCopy := false
	for _, m := range messages {
		if len(m.Images) > 0 {
			needsCopy = true
			break
		}
	}
	if !needsCopy {
		return messages
	}

	result := make([]llm.Message, len(messages))
	for i, m := range messages {
		m.Images = nil
		result[i] = m
	}
	return result
}
