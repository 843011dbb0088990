package planner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"planify/internal/docs"
)

// ConversationTurn is a single recorded agent turn.
type ConversationTurn struct {
	Phase         string  `json:"phase"`
	Model         string  `json:"model"`
	Content       string  `json:"content"`
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	CostUSD       float64 `json:"cost_usd"`
	HumanFeedback *string `json:"human_feedback"`
	Timestamp     string  `json:"timestamp"`
}

// Session is a planning session, durable across interrupts and resumable
// from disk.
type Session struct {
	ID                string                  `json:"id"`
	Task              string                  `json:"task"`
	RepoPath          string                  `json:"repo_path"`
	Status            SessionStatus           `json:"status"`
	CurrentPhase      Phase                   `json:"current_phase"`
	Round             int                     `json:"round"`
	Conversation      []ConversationTurn      `json:"conversation"`
	TotalCostUSD      float64                 `json:"total_cost_usd"`
	FilesLoaded       []string                `json:"files_loaded"`
	TokensUsed        int                     `json:"tokens_used"`
	CreatedAt         string                  `json:"created_at"`
	UpdatedAt         string                  `json:"updated_at"`
	DocImpactAnalysis *docs.DocImpactAnalysis `json:"doc_impact_analysis"`
}

// NewSession creates a fresh session for a task. The id combines a UTC
// timestamp with a slug of the task.
func NewSession(task, repoPath string) *Session {
	now := time.Now().UTC()
	timestamp := now.Format("2006-01-02-150405")
	iso := now.Format(time.RFC3339)

	return &Session{
		ID:           fmt.Sprintf("%s-%s", timestamp, slugify(task, 30)),
		Task:         task,
		RepoPath:     repoPath,
		Status:       StatusInProgress,
		CurrentPhase: PhaseArchitect,
		Round:        1,
		Conversation: []ConversationTurn{},
		FilesLoaded:  []string{},
		CreatedAt:    iso,
		UpdatedAt:    iso,
	}
}

// Save writes the session to <dir>/<id>.json, creating the directory when
// needed.
func (s *Session) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create session dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	path := filepath.Join(dir, s.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write session: %w", err)
	}
	return path, nil
}

// LoadSession reads a session back from disk.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &session, nil
}

// FinalPlan extracts the plan content from the conversation: the last
// integrator turn, else the last architect turn, else the last turn.
func (s *Session) FinalPlan() string {
	for i := len(s.Conversation) - 1; i >= 0; i-- {
		if s.Conversation[i].Phase == string(PhaseIntegrator) {
			return s.Conversation[i].Content
		}
	}
	for i := len(s.Conversation) - 1; i >= 0; i-- {
		if s.Conversation[i].Phase == string(PhaseArchitect) {
			return s.Conversation[i].Content
		}
	}
	if len(s.Conversation) > 0 {
		return s.Conversation[len(s.Conversation)-1].Content
	}
	return ""
}

var (
	slugSpaces   = regexp.MustCompile(`[\s_]+`)
	slugInvalid  = regexp.MustCompile(`[^a-z0-9\-]`)
	slugRepeated = regexp.MustCompile(`-+`)
)

// slugify turns text into a filesystem-safe slug. Truncation backs up to the
// previous hyphen so words are not cut mid-way.
func slugify(text string, maxLength int) string {
	slug := strings.ToLower(text)
	slug = slugSpaces.ReplaceAllString(slug, "-")
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugRepeated.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxLength {
		slug = slug[:maxLength]
		if idx := strings.LastIndex(slug, "-"); idx >= 0 {
			slug = slug[:idx]
		}
	}

	if slug == "" {
		return "plan"
	}
	return slug
}
