package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"planify/internal/planner"
)

// MarkdownGenerator renders a finished session into a plan document.
type MarkdownGenerator struct {
}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

// GenerateOptions controls which optional sections the document carries.
type GenerateOptions struct {
	IncludeTranscript  bool
	IncludeCostSummary bool
}

// Generate renders the session as a standalone markdown document: header,
// final plan, doc impact, then the optional transcript and cost summary.
func (g *MarkdownGenerator) Generate(session *planner.Session, opts GenerateOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Plan: %s\n\n", session.Task)
	fmt.Fprintf(&b, "**Session**: %s\n", session.ID)
	fmt.Fprintf(&b, "**Status**: %s\n", session.Status)
	fmt.Fprintf(&b, "**Created**: %s\n", session.CreatedAt)
	fmt.Fprintf(&b, "**Rounds**: %d\n", session.Round)
	fmt.Fprintf(&b, "**Total Cost**: $%.4f\n\n", session.TotalCostUSD)

	b.WriteString("---\n\n")
	b.WriteString(session.FinalPlan())
	b.WriteString("\n")

	if session.DocImpactAnalysis != nil {
		b.WriteString("\n## Documentation Impact\n\n")
		b.WriteString(session.DocImpactAnalysis.RenderMarkdown())
		b.WriteString("\n")
	}

	if opts.IncludeTranscript {
		b.WriteString("\n---\n\n## Planning Transcript\n")
		for _, turn := range session.Conversation {
			fmt.Fprintf(&b, "\n### %s (%s)\n\n", strings.ToUpper(turn.Phase), turn.Model)
			b.WriteString(turn.Content)
			b.WriteString("\n")
			if turn.HumanFeedback != nil {
				fmt.Fprintf(&b, "\n> **Human feedback**: %s\n", *turn.HumanFeedback)
			}
		}
	}

	if opts.IncludeCostSummary {
		b.WriteString("\n---\n\n## Cost Summary\n\n")
		b.WriteString("| Phase | Model | Tokens In | Tokens Out | Cost |\n")
		b.WriteString("|-------|-------|-----------|------------|------|\n")
		for _, turn := range session.Conversation {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | $%.4f |\n",
				turn.Phase, turn.Model, turn.InputTokens, turn.OutputTokens, turn.CostUSD)
		}
		fmt.Fprintf(&b, "\n**Total**: $%.4f\n", session.TotalCostUSD)
	}

	return b.String()
}

// Save writes the generated document to pathTemplate. A {slug} placeholder
// expands to the session id.
func (g *MarkdownGenerator) Save(session *planner.Session, pathTemplate string, opts GenerateOptions) (string, error) {
	path := strings.ReplaceAll(pathTemplate, "{slug}", session.ID)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	content := g.Generate(session, opts)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write plan: %w", err)
	}
	return path, nil
}
