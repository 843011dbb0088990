package client

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ProviderMock implements Provider for tests. Unset funcs return zero values.
type ProviderMock struct {
	NameValue    string
	CompleteFunc func(ctx context.Context, messages []*schema.Message, systemPrompt string) (*Response, error)
}

func (m *ProviderMock) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

func (m *ProviderMock) Complete(ctx context.Context, messages []*schema.Message, systemPrompt string) (*Response, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, systemPrompt)
	}
	return &Response{Model: "mock-model", FinishReason: "stop"}, nil
}
