// Package factory создает LLM провайдеров из конфигурации.
package factory

import (
	"fmt"

	"github.com/ilkoid/roy-ai/pkg/config"
	"github.com/ilkoid/roy-ai/pkg/llm"
	"github.com/ilkoid/roy-ai/pkg/llm/mistral"
	"github.com/ilkoid/roy-ai/pkg/llm/openai"
)

// NewLLMProvider создает провайдера на основе конфигурации модели.
//
// "openai" покрывает любой OpenAI-совместимый endpoint через base_url
// (DeepSeek, OpenRouter и т.д.).
func NewLLMProvider(modelDef config.ModelDef) (llm.Provider, error) {
	switch modelDef.Provider {
	case "openai", "deepseek", "openrouter":
		return openai.NewClient(modelDef), nil

	case "mistral":
		return mistral.NewClient(modelDef), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}
}
