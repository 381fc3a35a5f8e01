// Roy-cli — CLI утилита для запуска цепочки с LLM шагом.
//
// Использование:
//
//	./roy-cli "запрос"
//	./roy-cli -model mistral-large "запрос"
//	./roy-cli -prompt describe -var item=платье "запрос"
//	./roy-cli -json "запрос"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilkoid/roy-ai/pkg/chain"
	"github.com/ilkoid/roy-ai/pkg/config"
	"github.com/ilkoid/roy-ai/pkg/factory"
	"github.com/ilkoid/roy-ai/pkg/llm"
	"github.com/ilkoid/roy-ai/pkg/prompts"
	"github.com/ilkoid/roy-ai/pkg/utils"
)

// Version — версия утилиты (заполняется при сборке)
var Version = "dev"

// varsFlag собирает повторяемые -var key=value флаги.
type varsFlag map[string]any

func (v varsFlag) String() string { return fmt.Sprintf("%v", map[string]any(v)) }

func (v varsFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	v[key] = value
	return nil
}

func main() {
	vars := varsFlag{}
	var (
		configPath  = flag.String("config", "", "Path to config.yaml (default: ./config.yaml)")
		modelName   = flag.String("model", "", "Model alias from config (default: models.default_chat)")
		promptID    = flag.String("prompt", "", "Prompt id to load from prompts dir")
		jsonOutput  = flag.Bool("json", false, "Request JSON from the model and print machine-readable output")
		showVersion = flag.Bool("version", false, "Show version")
	)
	flag.Var(vars, "var", "Template variable key=value (repeatable)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("roy-cli version %s\n", Version)
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: query argument is required")
		fmt.Fprintln(os.Stderr, "Usage: roy-cli [flags] \"query\"")
		os.Exit(1)
	}
	userQuery := flag.Arg(0)

	if err := run(userQuery, *configPath, *modelName, *promptID, vars, *jsonOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(userQuery, configPath, modelName, promptID string, vars map[string]any, jsonOutput bool) error {
	if err := utils.InitLogger(); err != nil {
		log.Printf("Warning: failed to init logger: %v", err)
	}
	defer utils.Close()

	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = findConfigPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", cfgPath, err)
	}

	modelDef, ok := cfg.GetModel(modelName)
	if !ok {
		return fmt.Errorf("model '%s' is not defined in config", modelName)
	}

	provider, err := factory.NewLLMProvider(modelDef)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if modelDef.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, modelDef.Timeout)
		defer cancel()
	}

	// Начальный контекст цепочки: запрос + переменные из -var
	initial := map[string]any{"query": userQuery}
	for k, v := range vars {
		initial[k] = v
	}

	c := chain.NewSequentialChain(initial)

	// Опциональный шаг: рендер промпта из файлового источника
	systemPrompt := ""
	if promptID != "" {
		source, err := prompts.FromConfig(cfg)
		if err != nil {
			return err
		}
		p, err := source.Load(ctx, promptID)
		if err != nil {
			return err
		}
		systemPrompt = p.System

		c.AddStep(chain.NewStepFunc("render_prompt", func(ctx context.Context, cc *chain.ChainContext) chain.StepResult {
			rendered := cc.ResolvePlaceholders(p.Template)
			return chain.StepResult{Output: map[string]any{"query": rendered}}
		}))
	}

	c.AddStep(chain.NewStepFunc("generate", func(ctx context.Context, cc *chain.ChainContext) chain.StepResult {
		messages := []llm.Message{}
		if systemPrompt != "" {
			messages = append(messages, llm.NewSystemMessage(systemPrompt))
		}
		messages = append(messages, llm.NewUserMessage(cc.ResolveFString("{query}")))

		genOpts := []llm.GenerateOption{}
		if jsonOutput {
			genOpts = append(genOpts, llm.WithJSONFormat())
		}

		response, err := provider.Generate(ctx, messages, genOpts...)
		if err != nil {
			return chain.StepResult{}.WithError(err)
		}

		content := response.Content
		if jsonOutput {
			// Модели заворачивают JSON в markdown-заборы даже в json-режиме
			content = utils.CleanJsonBlock(content)
		}
		return chain.StepResult{Output: map[string]any{chain.KeyResult: content}}
	}))

	output, err := c.Invoke(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(output)
	}

	fmt.Println(output.Result)
	for _, d := range output.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s\n", d.String())
	}
	return nil
}

// printJSON выводит результат цепочки в машиночитаемом виде.
func printJSON(output chain.ChainOutput) error {
	diags := make([]string, len(output.Diagnostics))
	for i, d := range output.Diagnostics {
		diags[i] = d.String()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"result":      output.Result,
		"steps_run":   output.StepsRun,
		"duration_ms": output.Duration.Milliseconds(),
		"diagnostics": diags,
	})
}

// findConfigPath ищет config.yaml рядом с бинарником, затем в CWD.
func findConfigPath() string {
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "config.yaml"
}
