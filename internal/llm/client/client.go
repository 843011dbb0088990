package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Supported provider identifiers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Response is the result of a single completion call.
type Response struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	FinishReason string
}

func (r *Response) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// UsageStats accumulates token and cost totals across completion calls.
type UsageStats struct {
	TotalInputTokens  int
	TotalOutputTokens int
	TotalCostUSD      float64
	CallCount         int
}

func (u *UsageStats) add(r *Response) {
	u.TotalInputTokens += r.InputTokens
	u.TotalOutputTokens += r.OutputTokens
	u.TotalCostUSD += r.CostUSD
	u.CallCount++
}

// Provider sends completion requests to an LLM backend.
//
// Complete never retries: any failure surfaces as a *ProviderError and the
// caller decides what to do with it.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []*schema.Message, systemPrompt string) (*Response, error)
}

// ModelOptions configures a single chat model instance.
type ModelOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
	// Timeout bounds each completion call. Zero means no per-call deadline.
	Timeout time.Duration
}

func (o *ModelOptions) normalize() error {
	o.Model = strings.TrimSpace(o.Model)
	if o.Model == "" {
		return fmt.Errorf("model is required")
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 4096
	}
	return nil
}

// LLMClient wraps an eino chat model behind the Provider contract and tracks
// usage across calls. All three backends share this completion path; only
// construction differs.
type LLMClient struct {
	provider  string
	modelName string
	chatModel model.BaseChatModel
	timeout   time.Duration
	Usage     UsageStats
}

func (c *LLMClient) Name() string {
	return c.provider
}

func (c *LLMClient) Complete(ctx context.Context, messages []*schema.Message, systemPrompt string) (*Response, error) {
	input := make([]*schema.Message, 0, len(messages)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		input = append(input, schema.SystemMessage(systemPrompt))
	}
	input = append(input, messages...)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.chatModel.Generate(ctx, input)
	if err != nil {
		return nil, classifyProviderError(c.provider, err)
	}

	resp := &Response{
		Content:      out.Content,
		Model:        c.modelName,
		FinishReason: "stop",
	}
	if meta := out.ResponseMeta; meta != nil {
		if meta.FinishReason != "" {
			resp.FinishReason = meta.FinishReason
		}
		if meta.Usage != nil {
			resp.InputTokens = meta.Usage.PromptTokens
			resp.OutputTokens = meta.Usage.CompletionTokens
		}
	}
	resp.CostUSD = CalculateCost(c.provider, c.modelName, resp.InputTokens, resp.OutputTokens)

	c.Usage.add(resp)
	return resp, nil
}
