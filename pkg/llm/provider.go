// Интерфейс Провайдера через который работает весь фреймворк.

package llm

import "context"

// Provider — абстракция над LLM API.
//
// Все адаптеры (OpenAI, Mistral и совместимые endpoint'ы) реализуют
// этот интерфейс. Библиотечный код работает только через него.
type Provider interface {
	// Generate принимает контекст и историю сообщений.
	// Возвращает ответ модели в унифицированном формате Message.
	// opts — опциональные runtime-переопределения параметров генерации
	// (модель, температура, инструменты — см. options.go).
	Generate(ctx context.Context, messages []Message, opts ...GenerateOption) (Message, error)
}

// StreamingProvider — расширение Provider с потоковой генерацией.
//
// Отдельный интерфейс для обратной совместимости: провайдер может
// реализовать только Provider.
type StreamingProvider interface {
	Provider

	// GenerateStream выполняет запрос с потоковой передачей ответа.
	// onChunk вызывается для каждой порции текста по мере поступления.
	// Возвращает итоговое собранное сообщение.
	GenerateStream(ctx context.Context, messages []Message, onChunk func(chunk string), opts ...GenerateOption) (Message, error)
}

// Batch последовательно выполняет Generate для каждого набора сообщений.
//
// Останавливается на первой ошибке и возвращает уже полученные ответы
// вместе с ней. Отмена через ctx прерывает обработку между запросами.
func Batch(ctx context.Context, p Provider, batches [][]Message, opts ...GenerateOption) ([]Message, error) {
	results := make([]Message, 0, len(batches))
	for _, messages := range batches {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		msg, err := p.Generate(ctx, messages, opts...)
		if err != nil {
			return results, err
		}
		results = append(results, msg)
	}
	return results, nil
}
