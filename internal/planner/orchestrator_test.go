package planner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"planify/internal/config"
	"planify/internal/llm/agents"
	"planify/internal/llm/client"
)

func testConfig(maxRounds int) config.Config {
	cfg := config.Default()
	cfg.Roles.Architect = "openai"
	cfg.Roles.Critic = "openai"
	cfg.Roles.Integrator = "openai"
	cfg.Limits.MaxRounds = maxRounds
	cfg.Limits.MaxTotalCost = 5.0
	cfg.Context.AutoDetect = []string{"README.md"}
	cfg.Context.IncludePatterns = nil
	return cfg
}

func testRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	err := os.WriteFile(filepath.Join(repo, "README.md"), []byte("# Test Repo"), 0644)
	assert.NoError(t, err)
	return repo
}

func mockProvider(costPerTurn float64) *client.ProviderMock {
	calls := 0
	return &client.ProviderMock{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, messages []*schema.Message, systemPrompt string) (*client.Response, error) {
			calls++
			return &client.Response{
				Content:      fmt.Sprintf("response %d", calls),
				Model:        "gpt-4o",
				InputTokens:  100,
				OutputTokens: 50,
				CostUSD:      costPerTurn,
			}, nil
		},
	}
}

func TestRun_SingleRoundPhaseSequence(t *testing.T) {
	orch := NewOrchestrator(testConfig(1))
	orch.RegisterProvider("openai", mockProvider(0.01))

	session, err := orch.Run(context.Background(), "Add a feature", testRepo(t), nil, nil)
	assert.NoError(t, err)

	assert.Equal(t, StatusCompleted, session.Status)
	assert.Len(t, session.Conversation, 4)
	assert.Equal(t, "architect", session.Conversation[0].Phase)
	assert.Equal(t, "critic", session.Conversation[1].Phase)
	assert.Equal(t, "rebuttal", session.Conversation[2].Phase)
	assert.Equal(t, "integrator", session.Conversation[3].Phase)
	assert.Equal(t, 1, session.Round)
}

func TestRun_MultiRound(t *testing.T) {
	orch := NewOrchestrator(testConfig(2))
	orch.RegisterProvider("openai", mockProvider(0.01))

	session, err := orch.Run(context.Background(), "Add a feature", testRepo(t), nil, nil)
	assert.NoError(t, err)

	assert.Equal(t, StatusCompleted, session.Status)
	assert.Len(t, session.Conversation, 8)
	assert.Equal(t, 2, session.Round)
}

func TestRun_TotalCostIsSumOfTurns(t *testing.T) {
	orch := NewOrchestrator(testConfig(1))
	orch.RegisterProvider("openai", mockProvider(0.25))

	session, err := orch.Run(context.Background(), "Add a feature", testRepo(t), nil, nil)
	assert.NoError(t, err)

	var sum float64
	for _, turn := range session.Conversation {
		sum += turn.CostUSD
	}
	assert.InDelta(t, sum, session.TotalCostUSD, 1e-9)
	assert.InDelta(t, 1.0, session.TotalCostUSD, 1e-9)
}

func TestRun_CostLimitAbortsBeforeCall(t *testing.T) {
	cfg := testConfig(1)
	cfg.Limits.MaxTotalCost = 0.5
	orch := NewOrchestrator(cfg)
	orch.RegisterProvider("openai", mockProvider(0.3))

	session, err := orch.Run(context.Background(), "Add a feature", testRepo(t), nil, nil)
	assert.Error(t, err)

	var provErr *client.ProviderError
	assert.ErrorAs(t, err, &provErr)
	assert.Equal(t, "orchestrator", provErr.Provider)
	assert.ErrorIs(t, err, ErrCostLimitExceeded)

	assert.Equal(t, StatusAborted, session.Status)
	// Two turns succeed (0.6 total), the third is blocked before running.
	assert.Len(t, session.Conversation, 2)
}

func TestRun_ProviderErrorAbortsSession(t *testing.T) {
	orch := NewOrchestrator(testConfig(1))
	calls := 0
	orch.RegisterProvider("openai", &client.ProviderMock{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, messages []*schema.Message, systemPrompt string) (*client.Response, error) {
			calls++
			if calls == 2 {
				return nil, &client.ProviderError{Provider: "openai", StatusCode: 429, Retryable: true, Err: fmt.Errorf("rate limited")}
			}
			return &client.Response{Content: "ok", Model: "gpt-4o", CostUSD: 0.01}, nil
		},
	})

	session, err := orch.Run(context.Background(), "Add a feature", testRepo(t), nil, nil)
	assert.Error(t, err)
	assert.Equal(t, StatusAborted, session.Status)
	assert.Len(t, session.Conversation, 1)
}

func TestRun_FeedbackAttachedToTurn(t *testing.T) {
	orch := NewOrchestrator(testConfig(1))
	orch.RegisterProvider("openai", mockProvider(0.01))

	var phases []string
	feedback := func(ctx context.Context, phase string, response *agents.AgentResponse) (string, error) {
		phases = append(phases, phase)
		if phase == "critic" {
			return "be stricter", nil
		}
		return "", nil
	}

	session, err := orch.Run(context.Background(), "Add a feature", testRepo(t), feedback, nil)
	assert.NoError(t, err)

	assert.Equal(t, []string{"architect", "critic", "rebuttal", "integrator"}, phases)
	assert.Nil(t, session.Conversation[0].HumanFeedback)
	assert.NotNil(t, session.Conversation[1].HumanFeedback)
	assert.Equal(t, "be stricter", *session.Conversation[1].HumanFeedback)
	assert.Equal(t, StatusCompleted, session.Status)
}

func TestRun_RebuttalUsesArchitectRole(t *testing.T) {
	cfg := testConfig(1)
	cfg.Roles.Critic = "anthropic"
	orch := NewOrchestrator(cfg)

	architectCalls := 0
	orch.RegisterProvider("openai", &client.ProviderMock{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, messages []*schema.Message, systemPrompt string) (*client.Response, error) {
			architectCalls++
			return &client.Response{Content: "plan", Model: "gpt-4o", CostUSD: 0.01}, nil
		},
	})
	orch.RegisterProvider("anthropic", &client.ProviderMock{
		NameValue: "anthropic",
		CompleteFunc: func(ctx context.Context, messages []*schema.Message, systemPrompt string) (*client.Response, error) {
			return &client.Response{Content: "critique", Model: "claude-sonnet-4-20250514", CostUSD: 0.01}, nil
		},
	})

	session, err := orch.Run(context.Background(), "Add a feature", testRepo(t), nil, nil)
	assert.NoError(t, err)

	// Architect, rebuttal and integrator all run on the architect/integrator
	// providers; the rebuttal reuses the architect agent.
	assert.Equal(t, 3, architectCalls)
	assert.Equal(t, "claude-sonnet-4-20250514", session.Conversation[1].Model)
	assert.Equal(t, "gpt-4o", session.Conversation[2].Model)
}

func TestRun_DocImpactAttachedWhenRoutingTablePresent(t *testing.T) {
	repo := t.TempDir()
	claudeMD := `
| If you're changing... | Update... |
|----------------------|-----------|
| Backend API          | ` + "`api/CLAUDE.md`" + ` |
`
	assert.NoError(t, os.WriteFile(filepath.Join(repo, "CLAUDE.md"), []byte(claudeMD), 0644))

	cfg := testConfig(1)
	cfg.Context.AutoDetect = []string{"CLAUDE.md"}
	orch := NewOrchestrator(cfg)
	orch.RegisterProvider("openai", &client.ProviderMock{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, messages []*schema.Message, systemPrompt string) (*client.Response, error) {
			return &client.Response{Content: "Add an API endpoint and route", Model: "gpt-4o", CostUSD: 0.01}, nil
		},
	})

	session, err := orch.Run(context.Background(), "Expose the data over an API", repo, nil, nil)
	assert.NoError(t, err)

	assert.NotNil(t, session.DocImpactAnalysis)
	assert.NotEmpty(t, session.DocImpactAnalysis.Impacts)
	assert.Equal(t, "api/CLAUDE.md", session.DocImpactAnalysis.Impacts[0].DocPath)
}

func TestRun_ResumeContinuesFromPhase(t *testing.T) {
	orch := NewOrchestrator(testConfig(1))
	orch.RegisterProvider("openai", mockProvider(0.01))

	repo := testRepo(t)
	resumed := NewSession("Add a feature", repo)
	resumed.CurrentPhase = PhaseIntegrator
	resumed.Conversation = []ConversationTurn{
		{Phase: "architect", Model: "gpt-4o", Content: "plan", CostUSD: 0.01},
		{Phase: "critic", Model: "gpt-4o", Content: "critique", CostUSD: 0.01},
		{Phase: "rebuttal", Model: "gpt-4o", Content: "revision", CostUSD: 0.01},
	}
	resumed.TotalCostUSD = 0.03

	session, err := orch.Run(context.Background(), "", repo, nil, resumed)
	assert.NoError(t, err)

	assert.Equal(t, StatusCompleted, session.Status)
	assert.Len(t, session.Conversation, 4)
	assert.Equal(t, "integrator", session.Conversation[3].Phase)
}

func TestRun_InterruptDuringFeedbackPersistsRecordedTurns(t *testing.T) {
	orch := NewOrchestrator(testConfig(1))
	orch.RegisterProvider("openai", mockProvider(0.01))

	ctx, cancel := context.WithCancel(context.Background())
	feedback := func(fctx context.Context, phase string, response *agents.AgentResponse) (string, error) {
		if phase == "critic" {
			cancel()
			return "", fctx.Err()
		}
		return "", nil
	}

	session, err := orch.Run(ctx, "Add a feature", testRepo(t), feedback, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusAborted, session.Status)
	assert.Len(t, session.Conversation, 2)

	path, err := session.Save(t.TempDir())
	assert.NoError(t, err)

	loaded, err := LoadSession(path)
	assert.NoError(t, err)
	assert.Equal(t, StatusAborted, loaded.Status)
	assert.Len(t, loaded.Conversation, 2)
	assert.Equal(t, "architect", loaded.Conversation[0].Phase)
	assert.Equal(t, "critic", loaded.Conversation[1].Phase)
}

func TestRun_ResumeCompletedSessionReturnsUntouched(t *testing.T) {
	orch := NewOrchestrator(testConfig(1))
	calls := 0
	orch.RegisterProvider("openai", &client.ProviderMock{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, messages []*schema.Message, systemPrompt string) (*client.Response, error) {
			calls++
			return &client.Response{Content: "ok", Model: "gpt-4o", CostUSD: 0.01}, nil
		},
	})

	repo := testRepo(t)
	done := NewSession("Add a feature", repo)
	done.Status = StatusCompleted
	done.CurrentPhase = PhaseIntegrator
	done.Conversation = []ConversationTurn{
		{Phase: "integrator", Model: "gpt-4o", Content: "final plan", CostUSD: 0.01},
	}

	session, err := orch.Run(context.Background(), "", repo, nil, done)
	assert.NoError(t, err)
	assert.Equal(t, 0, calls)
	assert.Equal(t, StatusCompleted, session.Status)
	assert.Len(t, session.Conversation, 1)
}

func TestRun_ResumeAbortedSessionContinues(t *testing.T) {
	orch := NewOrchestrator(testConfig(1))
	orch.RegisterProvider("openai", mockProvider(0.01))

	repo := testRepo(t)
	aborted := NewSession("Add a feature", repo)
	aborted.Status = StatusAborted
	aborted.CurrentPhase = PhaseCritic
	aborted.Conversation = []ConversationTurn{
		{Phase: "architect", Model: "gpt-4o", Content: "plan", CostUSD: 0.01},
	}
	aborted.TotalCostUSD = 0.01

	session, err := orch.Run(context.Background(), "", repo, nil, aborted)
	assert.NoError(t, err)

	assert.Equal(t, StatusCompleted, session.Status)
	assert.Len(t, session.Conversation, 4)
	assert.Equal(t, "critic", session.Conversation[1].Phase)
	assert.Equal(t, "integrator", session.Conversation[3].Phase)
}

func TestRun_ContextCancellation(t *testing.T) {
	orch := NewOrchestrator(testConfig(1))
	orch.RegisterProvider("openai", mockProvider(0.01))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := orch.Run(ctx, "Add a feature", testRepo(t), nil, nil)
	assert.Error(t, err)
	assert.Equal(t, StatusAborted, session.Status)
	assert.Empty(t, session.Conversation)
}
