// Package measurements содержит метрики для оценки текстов и диалогов:
// подсчёт токенов, взаимная информация, базовая статистика.
package measurements

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ilkoid/roy-ai/pkg/llm"
)

// DefaultEncoding — BPE кодировка моделей GPT-4/GPT-4o.
const DefaultEncoding = "cl100k_base"

// Накладные токены формата Chat Completions на одно сообщение
// (разделители ролей и служебные маркеры).
const perMessageOverhead = 4

// TokenCountEstimator оценивает число токенов текста через tiktoken.
//
// Оценка точна для моделей OpenAI и близка для остальных провайдеров —
// достаточно для контроля бюджета контекста.
type TokenCountEstimator struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCountEstimator создает оценщик с указанной кодировкой.
// Пустое имя — DefaultEncoding.
func NewTokenCountEstimator(encodingName string) (*TokenCountEstimator, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding '%s': %w", encodingName, err)
	}
	return &TokenCountEstimator{encoding: enc}, nil
}

// Count возвращает число токенов в тексте.
func (e *TokenCountEstimator) Count(text string) int {
	return len(e.encoding.Encode(text, nil, nil))
}

// CountMessages оценивает суммарный размер диалога в токенах,
// включая накладные расходы формата на каждое сообщение.
func (e *TokenCountEstimator) CountMessages(messages []llm.Message) int {
	total := 0
	for _, m := range messages {
		total += perMessageOverhead
		total += e.Count(m.Content)
		if m.Name != "" {
			total += e.Count(m.Name)
		}
		for _, tc := range m.ToolCalls {
			total += e.Count(tc.Name)
			total += e.Count(tc.Args)
		}
	}
	return total
}
