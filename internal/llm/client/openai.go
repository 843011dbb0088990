package client

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
)

// NewOpenAIClient creates a completion client backed by the OpenAI chat API.
func NewOpenAIClient(ctx context.Context, apiKey string, opts ModelOptions) (*LLMClient, error) {
	if apiKey == "" {
		return nil, &ProviderError{Provider: ProviderOpenAI, Err: fmt.Errorf("API key is not configured")}
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	temperature := opts.Temperature
	maxTokens := opts.MaxTokens
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		Model:       opts.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create openai chat model: %w", err)
	}

	return &LLMClient{
		provider:  ProviderOpenAI,
		modelName: opts.Model,
		chatModel: chatModel,
		timeout:   opts.Timeout,
	}, nil
}
