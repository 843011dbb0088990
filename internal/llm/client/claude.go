package client

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
)

// NewClaudeClient creates a completion client backed by the Anthropic API.
func NewClaudeClient(ctx context.Context, apiKey string, opts ModelOptions) (*LLMClient, error) {
	if apiKey == "" {
		return nil, &ProviderError{Provider: ProviderAnthropic, Err: fmt.Errorf("API key is not configured")}
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	temperature := opts.Temperature
	chatModel, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:      apiKey,
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create claude chat model: %w", err)
	}

	return &LLMClient{
		provider:  ProviderAnthropic,
		modelName: opts.Model,
		chatModel: chatModel,
		timeout:   opts.Timeout,
	}, nil
}
