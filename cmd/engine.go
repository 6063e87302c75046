package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"taskchat/agent"
	"taskchat/config"
	"taskchat/conversation"
	"taskchat/llm"
	"taskchat/store"
)

// engine bundles everything a command needs to serve turns.
type engine struct {
	cfg     *config.Config
	model   *config.Model
	stores  *store.Bundle
	service *conversation.Service
	log     hclog.Logger
}

func (e *engine) Close() error {
	return e.stores.Close()
}

// buildEngine loads config and wires provider, stores, driver and
// orchestrator. Callers own Close.
func buildEngine(ctx context.Context, configPath string, logLevel string) (*engine, error) {
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "taskchat",
		Level: hclog.LevelFromString(logLevel),
	})

	model, err := cfg.ResolveModel(cfg.Assistant.Model)
	if err != nil {
		return nil, err
	}

	provider, err := createProvider(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	stores, err := store.NewBundle(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	driver := agent.NewDriver(provider, model.ModelName, cfg.Assistant.SystemPrompt, cfg.Assistant.MaxToolRounds, log.Named("agent"))
	service := conversation.NewService(stores, driver, time.Duration(cfg.Assistant.TurnTimeoutSecs)*time.Second, log.Named("conversation"))

	return &engine{
		cfg:     cfg,
		model:   model,
		stores:  stores,
		service: service,
		log:     log,
	}, nil
}

func createProvider(ctx context.Context, model *config.Model) (llm.Provider, error) {
	switch model.Provider {
	case config.ProviderGemini:
		return llm.NewGeminiProvider(ctx, model.APIKey)
	case config.ProviderOpenAI:
		return llm.NewOpenAIProvider(model.APIKey), nil
	case config.ProviderAnthropic:
		return llm.NewAnthropicProvider(model.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider '%s'", model.Provider)
	}
}
