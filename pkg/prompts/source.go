package prompts

import (
	"context"
	"fmt"

	"github.com/ilkoid/roy-ai/pkg/config"
	"github.com/ilkoid/roy-ai/pkg/s3storage"
)

// PromptSource — интерфейс для загрузки промптов из различных источников.
//
// OCP Principle: открыт для расширения (новые источники), закрыт
// для изменения. Реализации: FileSource, S3Source.
type PromptSource interface {
	// Load загружает промпт по идентификатору.
	// Возвращает ошибку, если источник не содержит промпт.
	Load(ctx context.Context, promptID string) (*PromptFile, error)
}

// Chain — цепочка источников: Load опрашивает их по порядку
// и возвращает первый найденный промпт.
type Chain struct {
	sources []PromptSource
}

// NewChain создает цепочку из переданных источников.
func NewChain(sources ...PromptSource) *Chain {
	return &Chain{sources: sources}
}

// Load опрашивает источники по порядку.
func (c *Chain) Load(ctx context.Context, promptID string) (*PromptFile, error) {
	var lastErr error
	for _, src := range c.sources {
		p, err := src.Load(ctx, promptID)
		if err == nil {
			return p, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, fmt.Errorf("prompt '%s': no sources configured", promptID)
	}
	return nil, fmt.Errorf("prompt '%s' not found in any source: %w", promptID, lastErr)
}

// FromConfig собирает источник промптов из конфигурации приложения.
//
// Базовый источник — файловый (prompts.dir). Если задан prompts.s3_prefix,
// поверх него строится цепочка с S3 источником: локальный файл выигрывает,
// S3 служит фолбэком для промптов, которых нет на диске.
func FromConfig(cfg *config.AppConfig) (PromptSource, error) {
	fileSource := NewFileSource(cfg.Prompts.Dir)
	if cfg.Prompts.S3Prefix == "" {
		return fileSource, nil
	}

	storage, err := s3storage.New(cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("creating s3 prompt storage: %w", err)
	}
	return NewChain(fileSource, NewS3Source(storage, cfg.Prompts.S3Prefix)), nil
}
