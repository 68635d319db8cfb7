// Package charterflow wires a field catalog and an optional chat model into a
// guided session orchestrator.
package charterflow

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tbxark/charterflow/agent"
	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/command"
	"github.com/tbxark/charterflow/config"
	"github.com/tbxark/charterflow/dialogue"
	"github.com/tbxark/charterflow/extraction"
)

// NewChatModel builds the chat model described by cfg. It returns nil, nil
// when no API key is configured.
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.ToolCallingChatModel, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	switch cfg.Provider {
	case "", "openai":
	default:
		return nil, eris.Errorf("charterflow: unsupported llm provider %q", cfg.Provider)
	}
	temperature := cfg.Temperature
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout(),
		Temperature: &temperature,
	})
	if err != nil {
		return nil, eris.Wrap(err, "charterflow: create chat model")
	}
	return cm, nil
}

// NewExtractionClient returns the offline client when chatModel is nil.
// Otherwise the rate limited tool client is tried first and the offline
// client takes over on transport failures.
func NewExtractionClient(cat *catalog.Catalog, chatModel model.ToolCallingChatModel, cfg config.LLMConfig, logger *zap.Logger) (extraction.Client, error) {
	local := extraction.NewLocalClient(cat)
	if chatModel == nil {
		return local, nil
	}
	tool, err := extraction.NewToolClient(chatModel, cat, extraction.WithLogger(logger))
	if err != nil {
		return nil, eris.Wrap(err, "charterflow: create extraction client")
	}
	limited := extraction.NewRateLimitedClient(tool, cfg.RequestsPerMinute, cfg.Burst)
	return extraction.NewFailoverClient(logger, limited, local), nil
}

func NewDialogueGenerator(chatModel model.ToolCallingChatModel, cfg config.LLMConfig, showProgress bool) dialogue.Generator {
	local := &dialogue.LocalDialogueGenerator{ShowProgress: showProgress}
	if chatModel == nil || !cfg.RephrasePrompts {
		return local
	}
	llm := dialogue.NewToolBasedDialogueGenerator(chatModel, dialogue.WithDialogueLang(cfg.Lang))
	return dialogue.NewFailbackDialogueGenerator(llm, local)
}

func NewCommandParser(chatModel model.ToolCallingChatModel, cfg config.LLMConfig) (command.Parser, error) {
	local := command.NewLocalCommandParser()
	if chatModel == nil || !cfg.ParseCommands {
		return local, nil
	}
	llm, err := command.NewToolBasedCommandParser(chatModel)
	if err != nil {
		return nil, eris.Wrap(err, "charterflow: create command parser")
	}
	return command.NewFailbackCommandParser(llm, local), nil
}

// LoadCatalog reads path, or returns the built in project charter when path
// is empty.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Charter(), nil
	}
	return catalog.Load(path)
}

// NewToolBasedOrchestrator runs every component on chatModel with default
// settings.
func NewToolBasedOrchestrator(cat *catalog.Catalog, chatModel model.ToolCallingChatModel, opts ...agent.Option) (*agent.Orchestrator, error) {
	llm := config.LLMConfig{RephrasePrompts: true, ParseCommands: true, Lang: "English"}
	return newOrchestrator(cat, chatModel, llm, false, zap.L(), opts...)
}

// New builds an orchestrator from configuration.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*agent.Orchestrator, error) {
	if logger == nil {
		logger = zap.L()
	}
	cat, err := LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	chatModel, err := NewChatModel(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	if chatModel == nil {
		logger.Info("no llm api key configured, using offline extraction")
	}
	return newOrchestrator(cat, chatModel, cfg.LLM, cfg.Session.ShowProgress, logger,
		agent.WithHistoryWindow(cfg.Session.HistoryWindow),
		agent.WithIdempotencyTTL(cfg.Session.IdempotencyTTL()),
	)
}

func newOrchestrator(cat *catalog.Catalog, chatModel model.ToolCallingChatModel, llm config.LLMConfig, showProgress bool, logger *zap.Logger, opts ...agent.Option) (*agent.Orchestrator, error) {
	client, err := NewExtractionClient(cat, chatModel, llm, logger)
	if err != nil {
		return nil, err
	}
	parser, err := NewCommandParser(chatModel, llm)
	if err != nil {
		return nil, err
	}
	base := []agent.Option{
		agent.WithCommandParser(parser),
		agent.WithDialogueGenerator(NewDialogueGenerator(chatModel, llm, showProgress)),
		agent.WithLogger(logger),
	}
	return agent.NewOrchestrator(cat, client, append(base, opts...)...)
}
