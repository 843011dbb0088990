// Package agents defines the planning roles that take part in a session:
// the architect drafts a plan, the critic challenges it, and the integrator
// folds the discussion into a final deliverable.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"planify/internal/llm/client"
	"planify/internal/repoctx"
)

// AgentResponse is one agent turn in a planning conversation.
type AgentResponse struct {
	Content      string
	Phase        string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Agent is a single planning role bound to an LLM provider.
type Agent struct {
	name         string
	systemPrompt string
	instructions string
	provider     client.Provider
}

func NewArchitectAgent(provider client.Provider) (*Agent, error) {
	return newAgent("architect", architectSystemPrompt, architectInstructions, provider)
}

func NewCriticAgent(provider client.Provider) (*Agent, error) {
	return newAgent("critic", criticSystemPrompt, criticInstructions, provider)
}

func NewIntegratorAgent(provider client.Provider) (*Agent, error) {
	return newAgent("integrator", integratorSystemPrompt, integratorInstructions, provider)
}

func newAgent(name, systemPrompt, instructions string, provider client.Provider) (*Agent, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	return &Agent{
		name:         name,
		systemPrompt: systemPrompt,
		instructions: instructions,
		provider:     provider,
	}, nil
}

// Name returns the agent's role name.
func (a *Agent) Name() string {
	return a.name
}

// Run executes the agent against the task, with project context and the
// conversation so far folded into a single user message.
func (a *Agent) Run(ctx context.Context, task string, projectCtx *repoctx.LoadedContext, history []AgentResponse) (*AgentResponse, error) {
	userContent := a.buildUserMessage(task, projectCtx, history)

	messages := []*schema.Message{schema.UserMessage(userContent)}

	response, err := a.provider.Complete(ctx, messages, a.systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%s agent failed: %w", a.name, err)
	}

	return &AgentResponse{
		Content:      response.Content,
		Phase:        a.name,
		Model:        response.Model,
		InputTokens:  response.InputTokens,
		OutputTokens: response.OutputTokens,
		CostUSD:      response.CostUSD,
	}, nil
}

func (a *Agent) buildUserMessage(task string, projectCtx *repoctx.LoadedContext, history []AgentResponse) string {
	var b strings.Builder

	if projectCtx != nil && len(projectCtx.Files) > 0 {
		b.WriteString(projectCtx.ToPrompt())
		b.WriteString("\n---\n\n")
	}

	fmt.Fprintf(&b, "# Task\n\n%s\n\n", task)

	if len(history) > 0 {
		b.WriteString("# Previous Planning Discussion\n\n")
		for _, response := range history {
			fmt.Fprintf(&b, "## %s\n\n", titleCase(response.Phase))
			b.WriteString(response.Content)
			b.WriteString("\n\n")
		}
		b.WriteString("---\n\n")
	}

	b.WriteString(a.instructions)

	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
