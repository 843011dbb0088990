package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"planify/internal/planner"
)

func TestExtractFromPlan_Checkboxes(t *testing.T) {
	plan := `## Implementation Steps

- [ ] Create the database migration
- [x] Write failing tests first
- [ ] x
`
	extractor := NewTaskExtractor()
	tasks := extractor.ExtractFromPlan(plan)

	assert.Len(t, tasks, 2)
	assert.Equal(t, "Create the database migration", tasks[0].Content)
	assert.False(t, tasks[0].Completed)
	assert.Equal(t, "Implementation Steps", tasks[0].Section)
	assert.Equal(t, 0, tasks[0].Priority)
	assert.Equal(t, "Write failing tests first", tasks[1].Content)
	assert.True(t, tasks[1].Completed)
	assert.Equal(t, 1, tasks[1].Priority)
}

func TestExtractFromPlan_NumberedItems(t *testing.T) {
	plan := `### Validation Steps

1. Run the integration suite
2) Verify the endpoint returns 200
3. ok
`
	tasks := NewTaskExtractor().ExtractFromPlan(plan)

	assert.Len(t, tasks, 2)
	assert.Equal(t, "Run the integration suite", tasks[0].Content)
	assert.Equal(t, "Verify the endpoint returns 200", tasks[1].Content)
	assert.Equal(t, "Validation Steps", tasks[1].Section)
	assert.False(t, tasks[0].Completed)
}

func TestExtractFromPlan_SectionTracking(t *testing.T) {
	plan := `- [ ] Item before any heading

## Background

Some prose, not a task section.

## Next Steps

- [ ] Ship the feature flag

## Acceptance Criteria

1. Latency stays under 100ms
`
	tasks := NewTaskExtractor().ExtractFromPlan(plan)

	assert.Len(t, tasks, 3)
	assert.Equal(t, "General", tasks[0].Section)
	assert.Equal(t, "Next Steps", tasks[1].Section)
	assert.Equal(t, "Acceptance Criteria", tasks[2].Section)
}

func TestExtractFromPlan_NonTaskHeadingKeepsSection(t *testing.T) {
	plan := `## Task List

- [ ] First task item

### Some Detail

- [ ] Second task item
`
	tasks := NewTaskExtractor().ExtractFromPlan(plan)

	assert.Len(t, tasks, 2)
	// A heading outside the known task sections does not reset the section.
	assert.Equal(t, "Task List", tasks[1].Section)
}

func TestExtractFromPlan_Empty(t *testing.T) {
	tasks := NewTaskExtractor().ExtractFromPlan("Just some prose with no lists.")
	assert.Empty(t, tasks)
}

func TestExtract_UsesSessionFinalPlan(t *testing.T) {
	session := planner.NewSession("add caching", "/tmp/repo")
	session.Conversation = append(session.Conversation, planner.ConversationTurn{
		Phase:   "integrator",
		Content: "## Implementation Steps\n\n- [ ] Add the cache layer\n",
	})

	tasks := NewTaskExtractor().Extract(session)

	assert.Len(t, tasks, 1)
	assert.Equal(t, "Add the cache layer", tasks[0].Content)
}

func TestToMarkdown_GroupsBySection(t *testing.T) {
	tasks := []ExtractedTask{
		{Content: "First step", Section: "Implementation Steps", Priority: 0},
		{Content: "Check output", Section: "Validation Steps", Priority: 2, Completed: true},
		{Content: "Second step", Section: "Implementation Steps", Priority: 1},
	}

	md := NewTaskExtractor().ToMarkdown(tasks)

	assert.Contains(t, md, "# Task List")
	assert.Contains(t, md, "## Implementation Steps")
	assert.Contains(t, md, "## Validation Steps")
	assert.Contains(t, md, "- [ ] First step")
	assert.Contains(t, md, "- [ ] Second step")
	assert.Contains(t, md, "- [x] Check output")

	// Sections render in first-seen order, with items sorted by priority.
	stepsIdx := strings.Index(md, "## Implementation Steps")
	validationIdx := strings.Index(md, "## Validation Steps")
	assert.Less(t, stepsIdx, validationIdx)
	assert.Less(t, strings.Index(md, "First step"), strings.Index(md, "Second step"))
}

func TestToMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "No tasks extracted.", NewTaskExtractor().ToMarkdown(nil))
}
