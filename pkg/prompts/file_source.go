package prompts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileSource загружает промпты из YAML файлов в директории:
// <baseDir>/<promptID>.yaml
type FileSource struct {
	baseDir string
}

var _ PromptSource = (*FileSource)(nil)

// NewFileSource создает файловый источник промптов.
func NewFileSource(baseDir string) *FileSource {
	return &FileSource{baseDir: baseDir}
}

// Load читает и парсит YAML файл промпта.
func (s *FileSource) Load(_ context.Context, promptID string) (*PromptFile, error) {
	if err := validatePromptID(promptID); err != nil {
		return nil, err
	}

	path := filepath.Join(s.baseDir, promptID+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt '%s' not found at %s: %w", promptID, path, err)
	}

	return parsePrompt(promptID, data)
}

// validatePromptID защищает от path traversal через идентификатор.
func validatePromptID(promptID string) error {
	if promptID == "" {
		return fmt.Errorf("prompt id is required")
	}
	if strings.Contains(promptID, "..") || strings.ContainsAny(promptID, `/\`) {
		return fmt.Errorf("invalid prompt id '%s'", promptID)
	}
	return nil
}

// parsePrompt разбирает YAML содержимое промпта.
func parsePrompt(promptID string, data []byte) (*PromptFile, error) {
	var p PromptFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompt '%s': %w", promptID, err)
	}
	if p.System == "" && p.Template == "" {
		return nil, fmt.Errorf("prompt '%s' is empty: system or template is required", promptID)
	}
	return &p, nil
}
