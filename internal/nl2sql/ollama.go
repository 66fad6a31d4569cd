package nl2sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

type OllamaConfig struct {
	ServerURL   string
	Model       string
	Temperature float64
	MaxTokens   int
}

type OllamaTranslator struct {
	llm         llms.Model
	model       string
	temperature float64
	maxTokens   int
}

var _ Translator = (*OllamaTranslator)(nil)

func NewOllamaTranslator(cfg OllamaConfig) (*OllamaTranslator, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "sqlcoder"
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL := strings.TrimSpace(cfg.ServerURL); serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &OllamaTranslator{
		llm:         llm,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (t *OllamaTranslator) Translate(ctx context.Context, prompt string) (Result, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
	callOpts := []llms.CallOption{llms.WithTemperature(t.temperature)}
	if t.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(t.maxTokens))
	}

	completion, err := t.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return Result{}, fmt.Errorf("generate completion: %w", err)
	}

	var builder strings.Builder
	for _, choice := range completion.Choices {
		if choice == nil {
			continue
		}
		builder.WriteString(choice.Content)
	}
	sql := cleanSQL(builder.String())
	if sql == "" {
		return Result{}, fmt.Errorf("model returned empty SQL")
	}
	return Result{
		SQL:      sql,
		Provider: "ollama",
		Model:    t.model,
	}, nil
}
