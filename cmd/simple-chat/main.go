// Simple-chat — TUI чат с AI агентом на Bubble Tea.
//
// Агент получает инструменты из реестра, история диалога опционально
// сохраняется в SQLite (store.path в config.yaml).
//
// Использование:
//
//	./simple-chat
//	./simple-chat -config ./config.yaml -model mistral
//	./simple-chat -session work-notes
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilkoid/roy-ai/pkg/agent"
	"github.com/ilkoid/roy-ai/pkg/config"
	"github.com/ilkoid/roy-ai/pkg/conversation/store"
	"github.com/ilkoid/roy-ai/pkg/events"
	"github.com/ilkoid/roy-ai/pkg/models"
	"github.com/ilkoid/roy-ai/pkg/prompts"
	"github.com/ilkoid/roy-ai/pkg/tools"
	"github.com/ilkoid/roy-ai/pkg/tui"
	"github.com/ilkoid/roy-ai/pkg/utils"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Path to config.yaml")
		modelName  = flag.String("model", "", "Model alias from config")
		sessionID  = flag.String("session", "", "Conversation id to persist in store")
	)
	flag.Parse()

	if err := run(*configPath, *modelName, *sessionID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, modelName, sessionID string) error {
	if err := utils.InitLogger(); err != nil {
		log.Printf("Warning: failed to init logger: %v", err)
	}
	defer utils.Close()
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	registryOfModels, err := models.NewRegistryFromConfig(cfg)
	if err != nil {
		return err
	}
	utils.Info("Models registered", "aliases", registryOfModels.ListNames())

	provider, modelDef, alias, err := registryOfModels.GetWithFallback(modelName, cfg.Models.DefaultChat)
	if err != nil {
		return err
	}
	utils.Info("Model selected", "alias", alias, "model", modelDef.ModelName)

	registry := tools.NewRegistry()
	registerBuiltinTools(registry)

	opts := []agent.Option{agent.WithMaxIterations(cfg.MaxIterations())}

	// Системный промпт из настроенных источников (опционально)
	if cfg.App.SystemPrompt != "" {
		source, err := prompts.FromConfig(cfg)
		if err != nil {
			return err
		}
		p, err := source.Load(ctx, cfg.App.SystemPrompt)
		if err != nil {
			return fmt.Errorf("loading system prompt: %w", err)
		}
		opts = append(opts, agent.WithSystemPrompt(p.System))
	}

	// Персистентность диалога (опционально)
	var convStore *store.Store
	if cfg.Store.Path != "" && sessionID != "" {
		convStore, err = store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer convStore.Close()

		if saved, err := convStore.Load(ctx, sessionID); err == nil {
			opts = append(opts, agent.WithConversation(saved))
			utils.Info("Session restored", "id", sessionID, "messages", saved.Len())
		}
	}

	a := agent.New(provider, registry, opts...)

	emitter := events.NewChanEmitter(100)
	a.SetEmitter(emitter)
	defer emitter.Close()

	ui := tui.NewChatTui(emitter.Subscribe(), tui.Config{
		Title:         "Roy AI",
		ModelName:     modelDef.ModelName,
		ShowTimestamp: true,
	})

	ui.OnInput(func(input string) {
		runCtx := ctx
		if modelDef.Timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, modelDef.Timeout)
			defer cancel()
		}

		if _, err := a.Run(runCtx, input); err != nil {
			utils.Error("Agent run failed", "error", err)
			return
		}

		if convStore != nil {
			if err := convStore.Save(ctx, sessionID, a.Conversation()); err != nil {
				utils.Error("Failed to persist session", "id", sessionID, "error", err)
			}
		}
	})

	return ui.Run()
}

// registerBuiltinTools регистрирует инструменты, доступные агенту из коробки.
func registerBuiltinTools(registry *tools.Registry) {
	// current_time — минимальный инструмент-пример
	_ = registry.Register(tools.NewFuncTool(
		tools.ToolDefinition{
			Name:        "current_time",
			Description: "Возвращает текущие дату и время",
			Parameters: tools.JSONSchema{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		func(ctx context.Context, args string) (string, error) {
			return time.Now().Format(time.RFC1123), nil
		},
	))
}
