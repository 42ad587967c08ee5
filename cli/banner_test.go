package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBanner(t *testing.T) {
	t.Parallel()

	out := Banner("navigate", 12, AlignCenter)
	lines := strings.Split(out, "\n")

	assert.Equal(t, []string{
		"╒══════════╕",
		"│ navigate │",
		"└──────────┘",
	}, lines)

	assert.Equal(t, "│navigate  │", strings.Split(Banner("navigate", 12, AlignLeft), "\n")[1])
	assert.Equal(t, "│  navigate│", strings.Split(Banner("navigate", 12, AlignRight), "\n")[1])
	assert.Empty(t, Banner("navigate", 2, AlignLeft))
	assert.Empty(t, Banner("", 20, AlignLeft))
}

func TestBanner_Truncates(t *testing.T) {
	t.Parallel()

	line := strings.Split(Banner("pick_and_place", 10, AlignLeft), "\n")[1]
	assert.Equal(t, "│pick_an…│", line)
}

func TestDivider(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "┠────┨", Divider(6))
	assert.Equal(t, "┠┨", Divider(1))
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	out := FormatReport(Report{
		Scenario:   "navigate",
		RunID:      "r1",
		FinalState: "aborted",
		Steps: []Step{
			{State: "go_to_goal", Outcome: "failed", Status: "ABORTED", Duration: "1.2s"},
		},
		Err: errors.New("boom"),
	}, 40)

	assert.Contains(t, out, "navigate  run r1")
	assert.Contains(t, out, "go_to_goal")
	assert.Contains(t, out, "ABORTED")
	assert.Contains(t, out, "final state: aborted")
	assert.Contains(t, out, "error: boom")
}
