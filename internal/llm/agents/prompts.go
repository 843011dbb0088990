package agents

import (
	_ "embed"
)

//go:embed prompts/architect_system.txt
var architectSystemPrompt string

//go:embed prompts/critic_system.txt
var criticSystemPrompt string

//go:embed prompts/integrator_system.txt
var integratorSystemPrompt string

const architectInstructions = `Based on the project context and task above, create a comprehensive implementation plan.

Your plan should be detailed enough that another developer could implement it without needing to ask clarifying questions. Reference specific files and patterns from the codebase where relevant.

Provide your plan now:`

const criticInstructions = `Review the Architect's plan above and provide your critique.

Be thorough but constructive. Your feedback should help improve the plan, not just tear it down. Focus on issues that actually matter for implementation.

Provide your critique now:`

const integratorInstructions = `Based on the planning discussion above (Architect's plan, Critic's feedback, and any rebuttals), produce the final implementation plan.

Resolve any disagreements, incorporate valid feedback, and create a clear, actionable plan that a developer can immediately start implementing.

Produce the final plan now:`
