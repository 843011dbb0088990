package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planify/internal/config"
	"planify/internal/docs"
	"planify/internal/keys"
	"planify/internal/llm/agents"
	"planify/internal/llm/client"
	"planify/internal/repoctx"
)

// ErrCostLimitExceeded marks a session stopped by the spend ceiling. It is
// wrapped in a ProviderError so resume flows can detect it with errors.Is.
var ErrCostLimitExceeded = errors.New("cost limit exceeded")

// FeedbackFunc collects human feedback after each phase. Returning an empty
// string continues without feedback.
type FeedbackFunc func(ctx context.Context, phase string, response *agents.AgentResponse) (string, error)

// Orchestrator drives a planning session through its phases, creating
// providers and agents lazily per configuration.
type Orchestrator struct {
	cfg       config.Config
	keyring   *keys.KeyringService
	providers map[string]client.Provider
	agentsMap map[string]*agents.Agent
}

func NewOrchestrator(cfg config.Config) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		keyring:   keys.NewKeyringService(),
		providers: make(map[string]client.Provider),
		agentsMap: make(map[string]*agents.Agent),
	}
}

// RegisterProvider pre-seeds a provider, bypassing API key resolution.
func (o *Orchestrator) RegisterProvider(name string, p client.Provider) {
	o.providers[name] = p
}

func (o *Orchestrator) getProvider(ctx context.Context, name string) (client.Provider, error) {
	if p, ok := o.providers[name]; ok {
		return p, nil
	}

	providerCfg, err := o.cfg.ProviderConfig(name)
	if err != nil {
		return nil, err
	}

	apiKey, err := o.keyring.ResolveAPIKey(name)
	if err != nil {
		return nil, err
	}

	opts := client.ModelOptions{
		Model:       providerCfg.Model,
		Temperature: providerCfg.Temperature,
		MaxTokens:   providerCfg.MaxTokens,
		Timeout:     time.Duration(o.cfg.Limits.TimeoutSeconds) * time.Second,
	}

	var p client.Provider
	switch name {
	case "openai":
		p, err = client.NewOpenAIClient(ctx, apiKey, opts)
	case "anthropic":
		p, err = client.NewClaudeClient(ctx, apiKey, opts)
	case "gemini":
		p, err = client.NewGeminiClient(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	if err != nil {
		return nil, err
	}

	o.providers[name] = p
	return p, nil
}

func (o *Orchestrator) getAgent(ctx context.Context, role string) (*agents.Agent, error) {
	if a, ok := o.agentsMap[role]; ok {
		return a, nil
	}

	providerName, err := o.cfg.ProviderForRole(role)
	if err != nil {
		return nil, err
	}
	provider, err := o.getProvider(ctx, providerName)
	if err != nil {
		return nil, err
	}

	var a *agents.Agent
	switch role {
	case "architect":
		a, err = agents.NewArchitectAgent(provider)
	case "critic":
		a, err = agents.NewCriticAgent(provider)
	case "integrator":
		a, err = agents.NewIntegratorAgent(provider)
	default:
		return nil, fmt.Errorf("unknown role: %s", role)
	}
	if err != nil {
		return nil, err
	}

	o.agentsMap[role] = a
	return a, nil
}

// Run executes a planning session from its current phase to completion.
// Passing a nil session starts a new one; a loaded session resumes where it
// stopped. A completed session is returned untouched, an aborted one resumes
// from its stored phase. The session reflects its final state even when an
// error is returned.
func (o *Orchestrator) Run(ctx context.Context, task, repoPath string, feedback FeedbackFunc, session *Session) (*Session, error) {
	if session != nil && session.Status == StatusCompleted {
		return session, nil
	}

	loader := repoctx.NewContextLoader(o.cfg.Context, 0, 0)
	projectCtx, err := loader.Load(repoPath)
	if err != nil {
		return session, err
	}

	docArch := docs.ParseDocArchitecture(projectCtx)

	if session == nil {
		session = NewSession(task, repoPath)
	} else {
		task = session.Task
		if session.Status == StatusAborted {
			session.Status = StatusInProgress
		}
	}
	session.FilesLoaded = loadedPaths(projectCtx)
	session.TokensUsed = projectCtx.TotalTokens

	if err := o.runLoop(ctx, session, projectCtx, feedback); err != nil {
		session.Status = StatusAborted
		return session, err
	}

	if session.Status == StatusCompleted && len(docArch.RoutingTable) > 0 {
		session.DocImpactAnalysis = docs.AnalyzePlanImpact(session.FinalPlan(), docArch, task)
	}

	return session, nil
}

func (o *Orchestrator) runLoop(ctx context.Context, session *Session, projectCtx *repoctx.LoadedContext, feedback FeedbackFunc) error {
	maxRounds := o.cfg.Limits.MaxRounds
	maxCost := o.cfg.Limits.MaxTotalCost

	for session.Round <= maxRounds {
		if err := ctx.Err(); err != nil {
			return err
		}

		// The spend check happens before the call, so a session never
		// starts a turn it cannot afford to record.
		if session.TotalCostUSD >= maxCost {
			return &client.ProviderError{
				Provider: "orchestrator",
				Err:      fmt.Errorf("%w: $%.2f >= $%.2f", ErrCostLimitExceeded, session.TotalCostUSD, maxCost),
			}
		}

		phase := session.CurrentPhase
		role := string(phase)
		if phase == PhaseRebuttal {
			role = string(PhaseArchitect)
		}
		agent, err := o.getAgent(ctx, role)
		if err != nil {
			return err
		}

		history := make([]agents.AgentResponse, 0, len(session.Conversation))
		for _, t := range session.Conversation {
			history = append(history, agents.AgentResponse{
				Content:      t.Content,
				Phase:        t.Phase,
				Model:        t.Model,
				InputTokens:  t.InputTokens,
				OutputTokens: t.OutputTokens,
				CostUSD:      t.CostUSD,
			})
		}

		response, err := agent.Run(ctx, session.Task, projectCtx, history)
		if err != nil {
			return err
		}

		session.Conversation = append(session.Conversation, ConversationTurn{
			Phase:        string(phase),
			Model:        response.Model,
			Content:      response.Content,
			InputTokens:  response.InputTokens,
			OutputTokens: response.OutputTokens,
			CostUSD:      response.CostUSD,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		})
		session.TotalCostUSD += response.CostUSD
		session.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

		if feedback != nil {
			session.Status = StatusAwaitingFeedback
			fb, err := feedback(ctx, string(phase), response)
			if err != nil {
				return err
			}
			if fb != "" {
				session.Conversation[len(session.Conversation)-1].HumanFeedback = &fb
			}
			session.Status = StatusInProgress
		}

		next := nextPhase(phase, session.Round, maxRounds)
		if next == "" {
			session.Status = StatusCompleted
			return nil
		}
		if next == PhaseArchitect && phase == PhaseIntegrator {
			session.Round++
		}
		session.CurrentPhase = next
	}

	session.Status = StatusCompleted
	return nil
}

func loadedPaths(ctx *repoctx.LoadedContext) []string {
	paths := make([]string, 0, len(ctx.Files))
	for _, f := range ctx.Files {
		paths = append(paths, f.Path)
	}
	return paths
}
