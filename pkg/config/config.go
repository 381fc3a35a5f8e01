package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig — корневая структура конфигурации.
// Зеркалит структуру config.yaml.
type AppConfig struct {
	Models          ModelsConfig    `yaml:"models"`
	Chain           ChainConfig     `yaml:"chain"`
	S3              S3Config        `yaml:"s3"`
	Prompts         PromptsConfig   `yaml:"prompts"`
	ImageProcessing ImageProcConfig `yaml:"image_processing"`
	Store           StoreConfig     `yaml:"store"`
	App             AppSpecific     `yaml:"app"`
}

// ModelsConfig — настройки AI моделей.
type ModelsConfig struct {
	DefaultChat string              `yaml:"default_chat"` // Алиас модели по умолчанию
	Definitions map[string]ModelDef `yaml:"definitions"`  // Словарь определений моделей
}

// ModelDef — параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "openai", "mistral"
	ModelName   string        `yaml:"model_name"` // Реальное имя в API
	APIKey      string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL     string        `yaml:"base_url"`   // Пусто — дефолтный endpoint провайдера
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // Go умеет парсить строки вида "60s", "1m"

	// Rate limiting для API провайдера
	RateLimit  int `yaml:"rate_limit"`  // Запросов в минуту (0 — без лимита)
	BurstLimit int `yaml:"burst_limit"` // Burst для rate limiter
}

// GetDefaults возвращает копию с дефолтными значениями для незаполненных полей.
func (m *ModelDef) GetDefaults() ModelDef {
	result := *m

	if result.MaxTokens == 0 {
		result.MaxTokens = 4096
	}
	if result.Timeout == 0 {
		result.Timeout = 60 * time.Second
	}
	if result.BurstLimit == 0 {
		result.BurstLimit = 5
	}

	return result
}

// ChainConfig — настройки выполнения цепочек.
type ChainConfig struct {
	MaxIterations int           `yaml:"max_iterations"` // Лимит итераций агента (дефолт 10)
	Timeout       time.Duration `yaml:"timeout"`
}

// S3Config — настройки объектного хранилища (для S3 источника промптов).
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
}

// PromptsConfig — источники промптов.
type PromptsConfig struct {
	Dir      string `yaml:"dir"`       // Директория с YAML промптами
	S3Prefix string `yaml:"s3_prefix"` // Префикс в бакете (пусто — S3 источник выключен)
}

// ImageProcConfig — настройки обработки изображений для Vision.
type ImageProcConfig struct {
	MaxWidth int `yaml:"max_width"`
	Quality  int `yaml:"quality"`
}

// StoreConfig — персистентность диалогов.
type StoreConfig struct {
	Path string `yaml:"path"` // Путь к SQLite файлу (пусто — без персистентности)
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug        bool   `yaml:"debug"`
	SystemPrompt string `yaml:"system_prompt"` // Имя промпта для системного сообщения
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	if c.Models.DefaultChat != "" {
		if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
			return fmt.Errorf("default_chat model '%s' is not defined in definitions", c.Models.DefaultChat)
		}
	}
	for alias, def := range c.Models.Definitions {
		if def.ModelName == "" {
			return fmt.Errorf("model '%s': model_name is required", alias)
		}
		if def.Provider == "" {
			return fmt.Errorf("model '%s': provider is required", alias)
		}
	}
	// S3 опционален, но если задан endpoint — нужен bucket
	if c.S3.Endpoint != "" && c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when s3.endpoint is set")
	}
	return nil
}

// GetModel возвращает конфигурацию модели по алиасу (с дефолтами).
// Пустое имя — модель по умолчанию.
func (c *AppConfig) GetModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	if !ok {
		return ModelDef{}, false
	}
	return m.GetDefaults(), true
}

// MaxIterations возвращает лимит итераций агента с дефолтом.
func (c *AppConfig) MaxIterations() int {
	if c.Chain.MaxIterations <= 0 {
		return 10
	}
	return c.Chain.MaxIterations
}
