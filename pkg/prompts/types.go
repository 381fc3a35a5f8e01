// Package prompts — загрузка и рендеринг промптов из внешних источников.
//
// Промпт хранится отдельно от кода (YAML файл или S3 объект) и
// подставляет переменные через плейсхолдеры {name} движком pkg/chain.
package prompts

import "github.com/ilkoid/roy-ai/pkg/chain"

// PromptFile — промпт, загруженный из источника.
type PromptFile struct {
	// System — текст системного промпта.
	System string `yaml:"system"`

	// Template — шаблон пользовательского сообщения с плейсхолдерами {name}.
	Template string `yaml:"template"`

	// Variables — дефолтные значения переменных шаблона.
	Variables map[string]string `yaml:"variables"`

	// Metadata — произвольные метаданные (версия, автор и т.д.).
	Metadata map[string]any `yaml:"metadata"`
}

// Render подставляет переменные в Template.
//
// Переданные overrides перекрывают дефолты из Variables.
// Неразрешённые плейсхолдеры остаются в тексте как есть (fail-soft).
func (p *PromptFile) Render(overrides map[string]any) string {
	values := make(map[string]any, len(p.Variables)+len(overrides))
	for k, v := range p.Variables {
		values[k] = v
	}
	for k, v := range overrides {
		values[k] = v
	}

	return chain.NewChainContextWith(values).ResolveFString(p.Template)
}
