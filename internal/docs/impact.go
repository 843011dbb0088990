package docs

import (
	"fmt"
	"sort"
	"strings"
)

// DocImpactPriority grades how strongly a plan implicates a doc.
type DocImpactPriority string

const (
	PriorityRequired    DocImpactPriority = "required"
	PriorityRecommended DocImpactPriority = "recommended"
	PriorityOptional    DocImpactPriority = "optional"
)

// DocImpact is one documentation file that needs updating for a plan.
type DocImpact struct {
	DocPath         string            `json:"doc_path"`
	Area            string            `json:"area"`
	Reason          string            `json:"reason"`
	Priority        DocImpactPriority `json:"priority"`
	MatchScore      int               `json:"match_score"`
	MatchedKeywords []string          `json:"matched_keywords"`
}

// DocImpactAnalysis is the full doc impact result for a plan.
type DocImpactAnalysis struct {
	Impacts  []DocImpact `json:"impacts"`
	Warnings []string    `json:"warnings"`
}

func (a *DocImpactAnalysis) RequiredUpdates() []DocImpact {
	return a.byPriority(PriorityRequired)
}

func (a *DocImpactAnalysis) RecommendedUpdates() []DocImpact {
	return a.byPriority(PriorityRecommended)
}

func (a *DocImpactAnalysis) OptionalUpdates() []DocImpact {
	return a.byPriority(PriorityOptional)
}

func (a *DocImpactAnalysis) byPriority(p DocImpactPriority) []DocImpact {
	var out []DocImpact
	for _, i := range a.Impacts {
		if i.Priority == p {
			out = append(out, i)
		}
	}
	return out
}

var priorityOrder = map[DocImpactPriority]int{
	PriorityRequired:    0,
	PriorityRecommended: 1,
	PriorityOptional:    2,
}

// AnalyzePlanImpact scores a finished plan against the doc architecture's
// routing table. The task description joins the plan for keyword matching,
// but warnings look at the plan text alone.
func AnalyzePlanImpact(planContent string, arch *DocArchitecture, task string) *DocImpactAnalysis {
	analysis := &DocImpactAnalysis{}
	if arch == nil {
		return analysis
	}

	combined := strings.ToLower(task + "\n\n" + planContent)
	seenDocs := make(map[string]bool)

	for _, route := range arch.RoutingTable {
		score := 0
		var matched []string
		for _, kw := range route.Keywords {
			if strings.Contains(combined, strings.ToLower(kw)) {
				score++
				matched = append(matched, kw)
			}
		}
		if score == 0 {
			continue
		}
		// First route wins when multiple areas share a doc.
		if seenDocs[route.DocPath] {
			continue
		}
		seenDocs[route.DocPath] = true

		priority := PriorityOptional
		switch {
		case score >= 4:
			priority = PriorityRequired
		case score >= 2:
			priority = PriorityRecommended
		}

		if len(matched) > 5 {
			matched = matched[:5]
		}
		analysis.Impacts = append(analysis.Impacts, DocImpact{
			DocPath:         route.DocPath,
			Area:            route.Area,
			Reason:          fmt.Sprintf("Plan modifies %s", route.Area),
			Priority:        priority,
			MatchScore:      score,
			MatchedKeywords: matched,
		})
	}

	sort.SliceStable(analysis.Impacts, func(i, j int) bool {
		a, b := analysis.Impacts[i], analysis.Impacts[j]
		if priorityOrder[a.Priority] != priorityOrder[b.Priority] {
			return priorityOrder[a.Priority] < priorityOrder[b.Priority]
		}
		return a.MatchScore > b.MatchScore
	})

	addWarnings(analysis, planContent)

	return analysis
}

// addWarnings flags common follow-ups the plan forgot to mention.
func addWarnings(analysis *DocImpactAnalysis, planContent string) {
	plan := strings.ToLower(planContent)
	has := func(s string) bool { return strings.Contains(plan, s) }

	if (has("endpoint") || has("api")) && has("route") && !has("document") && !has("docs") {
		analysis.Warnings = append(analysis.Warnings,
			"New API endpoint detected - ensure it's documented in OpenAPI/Swagger")
	}
	if has("component") && has("tsx") && !has("test") {
		analysis.Warnings = append(analysis.Warnings,
			"New component detected - consider adding unit tests")
	}
	if has("env") && (has("variable") || has("config")) && !has(".env.example") {
		analysis.Warnings = append(analysis.Warnings,
			"Environment variable changes detected - update .env.example")
	}
	if (has("model") || has("schema") || has("database")) && !has("migration") {
		analysis.Warnings = append(analysis.Warnings,
			"Data model changes detected - consider if migration is needed")
	}
}

// RenderMarkdown formats the analysis for inclusion in plan output.
func (a *DocImpactAnalysis) RenderMarkdown() string {
	if len(a.Impacts) == 0 && len(a.Warnings) == 0 {
		return "_No documentation updates detected._"
	}

	var lines []string
	required := a.RequiredUpdates()
	if len(required) > 0 {
		lines = append(lines, "### Required")
		for _, impact := range required {
			lines = append(lines, fmt.Sprintf("- [ ] `%s` — %s", impact.DocPath, impact.Reason))
			kws := impact.MatchedKeywords
			if len(kws) > 3 {
				kws = kws[:3]
			}
			if len(kws) > 0 {
				lines = append(lines, fmt.Sprintf("      _Keywords: %s_", strings.Join(kws, ", ")))
			}
		}
	}

	recommended := a.RecommendedUpdates()
	if len(recommended) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "### Recommended")
		for _, impact := range recommended {
			lines = append(lines, fmt.Sprintf("- [ ] `%s` — %s", impact.DocPath, impact.Reason))
		}
	}

	optional := a.OptionalUpdates()
	if len(optional) > 0 && len(required) == 0 && len(recommended) == 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "### Consider")
		if len(optional) > 3 {
			optional = optional[:3]
		}
		for _, impact := range optional {
			lines = append(lines, fmt.Sprintf("- [ ] `%s` — %s", impact.DocPath, impact.Reason))
		}
	}

	if len(a.Warnings) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "### Warnings")
		for _, w := range a.Warnings {
			lines = append(lines, "- ⚠️ "+w)
		}
	}

	return strings.Join(lines, "\n")
}
