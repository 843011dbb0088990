// Package docs parses documentation architecture out of CLAUDE.md files and
// scores generated plans against it, so finished plans can say which docs
// need a follow-up edit.
package docs

import (
	"regexp"
	"sort"
	"strings"

	"planify/internal/repoctx"
)

// DocRoute maps an area of change to the documentation file that owns it.
type DocRoute struct {
	Area     string
	DocPath  string
	Keywords []string
}

// Matches scores how well this route matches the given text. Zero means no
// keyword was found.
func (r *DocRoute) Matches(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, kw := range r.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			score++
		}
	}
	return score
}

// DocArchitecture is the routing table and convention set extracted from a
// project's CLAUDE.md files.
type DocArchitecture struct {
	RootDoc      string
	RoutingTable []DocRoute
	Conventions  map[string][]string
}

// RouteMatch pairs a route with its score against some plan text.
type RouteMatch struct {
	Route DocRoute
	Score int
}

// ImpactedDocs returns routes whose score against planContent meets the
// threshold, highest score first.
func (a *DocArchitecture) ImpactedDocs(planContent string, threshold int) []RouteMatch {
	var matches []RouteMatch
	for _, route := range a.RoutingTable {
		if score := route.Matches(planContent); score >= threshold {
			matches = append(matches, RouteMatch{Route: route, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

type areaCategory struct {
	name     string
	keywords []string
}

// areaCategories expands well-known area categories into match keywords.
// Kept as a slice so keyword derivation stays deterministic.
var areaCategories = []areaCategory{
	{"frontend", []string{"component", "react", "tsx", "jsx", "css", "style", "ui", "page", "route", "hook"}},
	{"component", []string{"component", "react", "tsx", "jsx", "props", "state", "hook", "render"}},
	{"e2e", []string{"test", "playwright", "e2e", "end-to-end", "spec", "fixture"}},
	{"a11y", []string{"accessibility", "a11y", "aria", "screen reader", "wcag", "contrast"}},

	{"backend", []string{"api", "endpoint", "route", "fastapi", "python", "server", "handler"}},
	{"api", []string{"endpoint", "route", "request", "response", "http", "rest", "json"}},
	{"caching", []string{"cache", "ttl", "redis", "memcache", "expir"}},
	{"provider", []string{"provider", "service", "integration", "external", "client"}},

	{"design", []string{"color", "theme", "style", "token", "typography", "spacing", "ui"}},
	{"token", []string{"color", "font", "spacing", "size", "variable", "css"}},
	{"contrast", []string{"contrast", "wcag", "accessibility", "readable"}},

	{"safety", []string{"guardrail", "block", "filter", "policy", "security", "sanitize"}},
	{"security", []string{"auth", "permission", "token", "secret", "encrypt", "sanitize"}},

	{"config", []string{"config", "environment", "env", "setting", "option"}},
	{"infra", []string{"docker", "deploy", "ci", "cd", "pipeline", "kubernetes"}},
}

var (
	wordPattern      = regexp.MustCompile(`\b[a-z]{3,}\b`)
	separatorPattern = regexp.MustCompile(`^\s*\|[\s\-:]+\|`)
	tableRowPattern  = regexp.MustCompile(`^\s*\|([^|]+)\|([^|]+)`)
	sectionPattern   = regexp.MustCompile(`(?i)^#+\s*(.+?)\s*(?:rules|guidelines|conventions|patterns)\s*$`)
	rulePattern      = regexp.MustCompile(`^\s*[-*\d.]+\s+(.+)$`)
)

// KeywordsForArea derives match keywords from an area description: category
// expansions first, then the area's own words, deduplicated in order.
func KeywordsForArea(area string) []string {
	lower := strings.ToLower(area)
	var keywords []string
	for _, cat := range areaCategories {
		if strings.Contains(lower, cat.name) {
			keywords = append(keywords, cat.keywords...)
		}
	}
	keywords = append(keywords, wordPattern.FindAllString(lower, -1)...)

	seen := make(map[string]bool)
	unique := keywords[:0]
	for _, kw := range keywords {
		if !seen[kw] {
			seen[kw] = true
			unique = append(unique, kw)
		}
	}
	return unique
}

// ParseRoutingTable extracts doc routes from markdown tables whose header
// row pairs "changing" with "update".
func ParseRoutingTable(content string) []DocRoute {
	var routes []DocRoute
	inTable := false

	for _, line := range strings.Split(content, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "changing") && strings.Contains(lower, "update") {
			inTable = true
			continue
		}
		if separatorPattern.MatchString(line) {
			continue
		}
		if inTable && !strings.HasPrefix(strings.TrimSpace(line), "|") {
			inTable = false
			continue
		}
		if !inTable {
			continue
		}

		m := tableRowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		area := strings.TrimSpace(m[1])
		docPath := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[2]), "`"))
		if strings.Contains(area, "---") || docPath == "" {
			continue
		}
		routes = append(routes, DocRoute{
			Area:     area,
			DocPath:  docPath,
			Keywords: KeywordsForArea(area),
		})
	}
	return routes
}

// ParseConventions collects rule bullets under headings that end in Rules,
// Guidelines, Conventions or Patterns.
func ParseConventions(content string) map[string][]string {
	conventions := make(map[string][]string)
	var currentSection string
	var currentRules []string

	flush := func() {
		if currentSection != "" && len(currentRules) > 0 {
			conventions[currentSection] = append(conventions[currentSection], currentRules...)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if m := sectionPattern.FindStringSubmatch(line); m != nil {
			flush()
			currentSection = strings.ToLower(strings.TrimSpace(m[1]))
			currentRules = nil
			continue
		}
		if currentSection == "" {
			continue
		}
		if m := rulePattern.FindStringSubmatch(line); m != nil {
			rule := strings.TrimSpace(m[1])
			if len(rule) > 10 {
				currentRules = append(currentRules, rule)
			}
		} else if strings.HasPrefix(line, "#") {
			flush()
			currentSection = ""
			currentRules = nil
		}
	}
	flush()
	return conventions
}

// ParseDocArchitecture scans loaded context for CLAUDE.md files and merges
// their routing tables and conventions into one architecture.
func ParseDocArchitecture(ctx *repoctx.LoadedContext) *DocArchitecture {
	arch := &DocArchitecture{Conventions: make(map[string][]string)}
	if ctx == nil {
		return arch
	}

	for _, file := range ctx.Files {
		if !strings.Contains(strings.ToUpper(file.Path), "CLAUDE.MD") {
			continue
		}
		if file.Path == "CLAUDE.md" {
			arch.RootDoc = file.Path
		}
		arch.RoutingTable = append(arch.RoutingTable, ParseRoutingTable(file.Content)...)
		for key, rules := range ParseConventions(file.Content) {
			arch.Conventions[key] = append(arch.Conventions[key], rules...)
		}
	}
	return arch
}
