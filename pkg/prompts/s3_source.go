package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/ilkoid/roy-ai/pkg/s3storage"
)

// S3Source загружает промпты из S3-совместимого хранилища:
// <prefix>/<promptID>.yaml
//
// Позволяет обновлять промпты без редеплоя приложения.
type S3Source struct {
	storage s3storage.ClientInterface
	prefix  string
}

var _ PromptSource = (*S3Source)(nil)

// NewS3Source создает S3 источник промптов.
func NewS3Source(storage s3storage.ClientInterface, prefix string) *S3Source {
	prefix = strings.TrimSuffix(prefix, "/")
	return &S3Source{storage: storage, prefix: prefix}
}

// Load скачивает и парсит YAML объект промпта.
func (s *S3Source) Load(ctx context.Context, promptID string) (*PromptFile, error) {
	if err := validatePromptID(promptID); err != nil {
		return nil, err
	}

	key := promptID + ".yaml"
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}

	data, err := s.storage.DownloadFile(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("prompt '%s' not found in s3 at %s: %w", promptID, key, err)
	}

	return parsePrompt(promptID, data)
}
