// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Поддерживает Function Calling (tools), Vision запросы и транскрипцию аудио.
// Библиотечный код работает с этим адаптером только через интерфейс llm.Provider.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ilkoid/roy-ai/pkg/config"
	"github.com/ilkoid/roy-ai/pkg/llm"
	"github.com/ilkoid/roy-ai/pkg/tools"
	"github.com/ilkoid/roy-ai/pkg/utils"
)

// Client реализует интерфейсы llm.Provider и llm.StreamingProvider
// для OpenAI-совместимых API.
type Client struct {
	api         *openai.Client
	model       string
	temperature float64
	maxTokens   int

	// limiter ограничивает частоту запросов к API (nil — без лимита)
	limiter *rate.Limiter
}

// Проверки реализации интерфейсов.
var (
	_ llm.Provider          = (*Client)(nil)
	_ llm.StreamingProvider = (*Client)(nil)
)

// NewClient создает OpenAI клиент на основе конфигурации модели.
//
// Поддержка custom BaseURL позволяет работать с любым OpenAI-совместимым
// endpoint (DeepSeek, OpenRouter и т.д.). Все настройки из конфигурации,
// никакого хардкода.
func NewClient(modelDef config.ModelDef) *Client {
	modelDef = modelDef.GetDefaults()

	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}

	var limiter *rate.Limiter
	if modelDef.RateLimit > 0 {
		// rate_limit в запросах/минуту → rate.Limit в запросах/секунду
		ratePerSec := float64(modelDef.RateLimit) / 60.0
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), modelDef.BurstLimit)
	}

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       modelDef.ModelName,
		temperature: modelDef.Temperature,
		maxTokens:   modelDef.MaxTokens,
		limiter:     limiter,
	}
}

// wait блокирует до разрешения rate limiter'а (если настроен).
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// buildRequest собирает запрос из сообщений и опций генерации.
func (c *Client) buildRequest(messages []llm.Message, o llm.GenerateOptions) openai.ChatCompletionRequest {
	model := c.model
	if o.Model != "" {
		model = o.Model
	}
	temperature := c.temperature
	if o.Temperature != 0 {
		temperature = o.Temperature
	}
	maxTokens := c.maxTokens
	if o.MaxTokens != 0 {
		maxTokens = o.MaxTokens
	}

	openaiMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		openaiMsgs[i] = mapToOpenAI(m)
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    openaiMsgs,
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	}

	if o.Format == "json_object" {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	if len(o.Tools) > 0 {
		req.Tools = convertToolsToOpenAI(o.Tools)
		// Автоматический режим — LLM сама решает когда вызывать tools
		req.ToolChoice = "auto"
	}

	return req
}

// Generate выполняет запрос к API и возвращает ответ модели.
//
// Алгоритм:
//  1. Конвертирует внутренние сообщения в формат OpenAI SDK
//  2. Если в опциях переданы tools — добавляет их в запрос
//  3. Ждёт rate limiter, вызывает API
//  4. Конвертирует ответ обратно в наш формат, включая ToolCalls
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	startTime := time.Now()
	o := llm.ApplyOptions(opts...)
	req := c.buildRequest(messages, o)

	utils.Debug("LLM request started",
		"model", req.Model,
		"messages_count", len(messages),
		"tools_count", len(o.Tools))

	if err := c.wait(ctx); err != nil {
		return llm.Message{}, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", req.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("no choices in response")
	}

	result := fromOpenAI(resp.Choices[0].Message)

	utils.Info("LLM response received",
		"model", req.Model,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// GenerateStream выполняет запрос с потоковой передачей ответа.
//
// onChunk вызывается для каждой порции текста. Tool calls накапливаются
// из дельт и возвращаются в итоговом сообщении.
func (c *Client) GenerateStream(ctx context.Context, messages []llm.Message, onChunk func(chunk string), opts ...llm.GenerateOption) (llm.Message, error) {
	o := llm.ApplyOptions(opts...)
	req := c.buildRequest(messages, o)
	req.Stream = true

	if err := c.wait(ctx); err != nil {
		return llm.Message{}, fmt.Errorf("rate limiter: %w", err)
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return llm.Message{}, fmt.Errorf("openai stream error: %w", err)
	}
	defer stream.Close()

	result := llm.Message{Role: llm.RoleAssistant}

	// Накопители tool call дельт: индекс → частичный вызов
	type partialCall struct {
		id   string
		name string
		args string
	}
	partials := make(map[int]*partialCall)

	for {
		resp, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return llm.Message{}, fmt.Errorf("openai stream recv: %w", recvErr)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta

		if delta.Content != "" {
			result.Content += delta.Content
			if onChunk != nil {
				onChunk(delta.Content)
			}
		}

		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			p, ok := partials[idx]
			if !ok {
				p = &partialCall{}
				partials[idx] = p
			}
			if tc.ID != "" {
				p.id = tc.ID
			}
			if tc.Function.Name != "" {
				p.name = tc.Function.Name
			}
			p.args += tc.Function.Arguments
		}
	}

	for i := 0; i < len(partials); i++ {
		p, ok := partials[i]
		if !ok {
			continue
		}
		result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
			ID:   p.id,
			Name: p.name,
			Args: p.args,
		})
	}

	return result, nil
}

// Transcribe конвертирует аудио файл в текст через Whisper API.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription error: %w", err)
	}

	return resp.Text, nil
}

// mapToOpenAI конвертирует наше внутреннее сообщение в формат SDK.
// Здесь происходит магия Vision: если есть картинки, создаем MultiContent.
func mapToOpenAI(m llm.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:       string(m.Role),
		ToolCallID: m.ToolCallID,
		Name:       m.Name,
	}

	if len(m.ToolCalls) > 0 {
		msg.ToolCalls = make([]openai.ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			msg.ToolCalls[i] = openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Args,
				},
			}
		}
	}

	// Если картинок нет, отправляем просто текст
	if len(m.Images) == 0 {
		msg.Content = m.Content
		return msg
	}

	// Vision запрос: текст + картинки в MultiContent
	parts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: m.Content,
		},
	}

	for _, imgURL := range m.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    imgURL, // base64 data-uri или http ссылка
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	msg.MultiContent = parts
	return msg
}

// fromOpenAI конвертирует ответ SDK в наш формат, включая ToolCalls.
func fromOpenAI(choice openai.ChatCompletionMessage) llm.Message {
	result := llm.Message{
		Role:    llm.Role(choice.Role),
		Content: choice.Content,
	}

	if len(choice.ToolCalls) > 0 {
		result.ToolCalls = make([]llm.ToolCall, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			result.ToolCalls[i] = llm.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}

	return result
}

// convertToolsToOpenAI конвертирует определения инструментов во внутреннем
// формате в формат OpenAI Function Calling.
//
// ToolDefinition.Parameters уже является JSON Schema объектом,
// поэтому напрямую передаётся в SDK.
func convertToolsToOpenAI(defs []tools.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(defs))

	for i, def := range defs {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}

	return result
}
