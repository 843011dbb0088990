package client

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"
)

// NewGeminiClient creates a completion client backed by the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string, opts ModelOptions) (*LLMClient, error) {
	if apiKey == "" {
		return nil, &ProviderError{Provider: ProviderGemini, Err: fmt.Errorf("API key is not configured")}
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := opts.Temperature
	maxTokens := opts.MaxTokens
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      genaiClient,
		Model:       opts.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini chat model: %w", err)
	}

	return &LLMClient{
		provider:  ProviderGemini,
		modelName: opts.Model,
		chatModel: chatModel,
		timeout:   opts.Timeout,
	}, nil
}
