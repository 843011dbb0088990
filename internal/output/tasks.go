// Package output turns finished planning sessions into deliverables: a
// markdown plan document and an actionable task checklist.
package output

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"planify/internal/planner"
)

// ExtractedTask is one actionable item pulled from a plan.
type ExtractedTask struct {
	Content   string `json:"content"`
	Section   string `json:"section"`
	Completed bool   `json:"completed"`
	Priority  int    `json:"priority"`
}

var (
	checkboxPattern = regexp.MustCompile(`^[-*]\s*\[([ xX])\]\s*(.+)$`)
	numberedPattern = regexp.MustCompile(`^(\d+)[.)]\s*(.+)$`)
	headingPattern  = regexp.MustCompile(`^#{1,3}\s*(.+)$`)
)

// taskSections are headings whose items count as tasks.
var taskSections = []string{
	"Implementation Steps",
	"Task List",
	"Tasks",
	"Acceptance Criteria",
	"Validation Steps",
	"Next Steps",
	"Action Items",
}

// TaskExtractor pulls checkbox and numbered items out of plan markdown.
type TaskExtractor struct {
}

func NewTaskExtractor() *TaskExtractor {
	return &TaskExtractor{}
}

// Extract returns the tasks found in the session's final plan, in document
// order. Priority reflects position, lower first.
func (e *TaskExtractor) Extract(session *planner.Session) []ExtractedTask {
	return e.ExtractFromPlan(session.FinalPlan())
}

// ExtractFromPlan extracts tasks from raw plan markdown.
func (e *TaskExtractor) ExtractFromPlan(plan string) []ExtractedTask {
	var tasks []ExtractedTask
	currentSection := "General"
	priority := 0

	for _, line := range strings.Split(plan, "\n") {
		line = strings.TrimSpace(line)

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			for _, section := range taskSections {
				if strings.Contains(strings.ToLower(name), strings.ToLower(section)) {
					currentSection = name
					break
				}
			}
			continue
		}

		if task, ok := taskFromLine(line, currentSection, priority); ok {
			tasks = append(tasks, task)
			priority++
		}
	}

	return tasks
}

func taskFromLine(line, section string, priority int) (ExtractedTask, bool) {
	if m := checkboxPattern.FindStringSubmatch(line); m != nil {
		content := strings.TrimSpace(m[2])
		if len(content) >= 5 {
			return ExtractedTask{
				Content:   content,
				Section:   section,
				Completed: strings.EqualFold(m[1], "x"),
				Priority:  priority,
			}, true
		}
	}
	if m := numberedPattern.FindStringSubmatch(line); m != nil {
		content := strings.TrimSpace(m[2])
		if len(content) >= 5 {
			return ExtractedTask{
				Content:  content,
				Section:  section,
				Priority: priority,
			}, true
		}
	}
	return ExtractedTask{}, false
}

// ToMarkdown renders the tasks as a checklist grouped by section.
func (e *TaskExtractor) ToMarkdown(tasks []ExtractedTask) string {
	if len(tasks) == 0 {
		return "No tasks extracted."
	}

	lines := []string{"# Task List\n"}

	var sectionOrder []string
	sections := make(map[string][]ExtractedTask)
	for _, task := range tasks {
		if _, ok := sections[task.Section]; !ok {
			sectionOrder = append(sectionOrder, task.Section)
		}
		sections[task.Section] = append(sections[task.Section], task)
	}

	for _, section := range sectionOrder {
		lines = append(lines, fmt.Sprintf("\n## %s\n", section))
		sectionTasks := sections[section]
		sort.SliceStable(sectionTasks, func(i, j int) bool {
			return sectionTasks[i].Priority < sectionTasks[j].Priority
		})
		for _, task := range sectionTasks {
			checkbox := "[ ]"
			if task.Completed {
				checkbox = "[x]"
			}
			lines = append(lines, fmt.Sprintf("- %s %s", checkbox, task.Content))
		}
	}

	return strings.Join(lines, "\n")
}
