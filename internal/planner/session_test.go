package planner

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"planify/internal/docs"
)

func TestNewSession(t *testing.T) {
	session := NewSession("Add email notifications", "/tmp/repo")

	assert.Equal(t, StatusInProgress, session.Status)
	assert.Equal(t, PhaseArchitect, session.CurrentPhase)
	assert.Equal(t, 1, session.Round)
	assert.True(t, strings.HasSuffix(session.ID, "-add-email-notifications"))
	assert.Equal(t, "/tmp/repo", session.RepoPath)
}

func TestSession_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	feedback := "looks good"
	session := NewSession("Refactor auth flow", "/tmp/repo")
	session.Status = StatusCompleted
	session.CurrentPhase = PhaseIntegrator
	session.Round = 2
	session.TotalCostUSD = 0.1234
	session.TokensUsed = 4200
	session.FilesLoaded = []string{"README.md", "CLAUDE.md"}
	session.Conversation = []ConversationTurn{
		{
			Phase:        "architect",
			Model:        "gpt-4o",
			Content:      "## Summary\nA plan.",
			InputTokens:  100,
			OutputTokens: 50,
			CostUSD:      0.05,
			Timestamp:    "2026-08-30T10:00:00Z",
		},
		{
			Phase:         "critic",
			Model:         "claude-sonnet-4-20250514",
			Content:       "## Verdict\nAPPROVE",
			InputTokens:   200,
			OutputTokens:  80,
			CostUSD:       0.0734,
			HumanFeedback: &feedback,
			Timestamp:     "2026-08-30T10:01:00Z",
		},
	}
	session.DocImpactAnalysis = &docs.DocImpactAnalysis{
		Impacts: []docs.DocImpact{
			{DocPath: "web/CLAUDE.md", Area: "Frontend", Reason: "Plan modifies Frontend", Priority: docs.PriorityRequired, MatchScore: 4},
		},
		Warnings: []string{"Add tests"},
	}

	path, err := session.Save(dir)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, session.ID+".json"), path)

	loaded, err := LoadSession(path)
	assert.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, session.Task, loaded.Task)
	assert.Equal(t, StatusCompleted, loaded.Status)
	assert.Equal(t, PhaseIntegrator, loaded.CurrentPhase)
	assert.Equal(t, 2, loaded.Round)
	assert.Equal(t, session.TotalCostUSD, loaded.TotalCostUSD)
	assert.Len(t, loaded.Conversation, 2)
	assert.Equal(t, "architect", loaded.Conversation[0].Phase)
	assert.Nil(t, loaded.Conversation[0].HumanFeedback)
	assert.NotNil(t, loaded.Conversation[1].HumanFeedback)
	assert.Equal(t, "looks good", *loaded.Conversation[1].HumanFeedback)
	assert.NotNil(t, loaded.DocImpactAnalysis)
	assert.Equal(t, "web/CLAUDE.md", loaded.DocImpactAnalysis.Impacts[0].DocPath)
}

func TestSession_FinalPlan(t *testing.T) {
	session := NewSession("task", ".")
	assert.Equal(t, "", session.FinalPlan())

	session.Conversation = []ConversationTurn{
		{Phase: "architect", Content: "draft plan"},
		{Phase: "critic", Content: "critique"},
	}
	assert.Equal(t, "draft plan", session.FinalPlan())

	session.Conversation = append(session.Conversation,
		ConversationTurn{Phase: "rebuttal", Content: "revised plan"},
		ConversationTurn{Phase: "integrator", Content: "final plan"},
	)
	assert.Equal(t, "final plan", session.FinalPlan())
}

func TestSession_FinalPlanLastTurnFallback(t *testing.T) {
	session := NewSession("task", ".")
	session.Conversation = []ConversationTurn{
		{Phase: "critic", Content: "only a critique"},
	}
	assert.Equal(t, "only a critique", session.FinalPlan())
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "add-email-notifications", slugify("Add Email Notifications", 30))
	assert.Equal(t, "fix-the-bug", slugify("Fix_the bug!!", 30))
	assert.Equal(t, "plan", slugify("!!!", 30))
	assert.Equal(t, "plan", slugify("", 30))

	long := slugify("implement a very long feature description that keeps going", 30)
	assert.LessOrEqual(t, len(long), 30)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func TestNextPhase(t *testing.T) {
	assert.Equal(t, PhaseCritic, nextPhase(PhaseArchitect, 1, 1))
	assert.Equal(t, PhaseRebuttal, nextPhase(PhaseCritic, 1, 1))
	assert.Equal(t, PhaseIntegrator, nextPhase(PhaseRebuttal, 1, 1))
	assert.Equal(t, Phase(""), nextPhase(PhaseIntegrator, 1, 1))
	assert.Equal(t, PhaseArchitect, nextPhase(PhaseIntegrator, 1, 2))
	assert.Equal(t, Phase(""), nextPhase(PhaseIntegrator, 2, 2))
}
