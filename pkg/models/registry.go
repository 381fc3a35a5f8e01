// Package models предоставляет реестр LLM провайдеров.
//
// Провайдеры создаются один раз при старте из config.yaml и
// переиспользуются — вместе с ними живут их rate limiter'ы.
package models

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ilkoid/roy-ai/pkg/config"
	"github.com/ilkoid/roy-ai/pkg/factory"
	"github.com/ilkoid/roy-ai/pkg/llm"
)

// Registry — потокобезопасное хранилище LLM провайдеров по алиасам.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	provider llm.Provider
	def      config.ModelDef
}

// NewRegistry создает пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register добавляет провайдера под алиасом.
// Повторная регистрация того же алиаса — ошибка.
func (r *Registry) Register(alias string, def config.ModelDef, provider llm.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[alias]; exists {
		return fmt.Errorf("model '%s' already registered", alias)
	}

	r.entries[alias] = entry{provider: provider, def: def}
	return nil
}

// Get возвращает провайдера и конфигурацию по алиасу.
func (r *Registry) Get(alias string) (llm.Provider, config.ModelDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[alias]
	if !ok {
		return nil, config.ModelDef{}, fmt.Errorf("model '%s' not found in registry", alias)
	}
	return e.provider, e.def, nil
}

// GetWithFallback возвращает запрошенную модель, а при её отсутствии —
// дефолтную. Четвёртым значением возвращается фактический алиас.
func (r *Registry) GetWithFallback(requested, fallback string) (llm.Provider, config.ModelDef, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[requested]; ok {
		return e.provider, e.def, requested, nil
	}
	if e, ok := r.entries[fallback]; ok {
		return e.provider, e.def, fallback, nil
	}
	return nil, config.ModelDef{}, "", fmt.Errorf(
		"neither requested model '%s' nor fallback '%s' found in registry", requested, fallback)
}

// ListNames возвращает отсортированный список зарегистрированных алиасов.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRegistryFromConfig создает реестр со всеми моделями из конфигурации.
// Возвращает ошибку если хоть одна модель не инициализируется.
func NewRegistryFromConfig(cfg *config.AppConfig) (*Registry, error) {
	registry := NewRegistry()

	for alias, modelDef := range cfg.Models.Definitions {
		provider, err := factory.NewLLMProvider(modelDef.GetDefaults())
		if err != nil {
			return nil, fmt.Errorf("failed to create provider for model '%s': %w", alias, err)
		}
		if err := registry.Register(alias, modelDef.GetDefaults(), provider); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
