// Package cli renders run reports and asks operators for confirmation before a
// robot starts moving.
package cli

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	dividerLeft    = "┠"
	dividerMiddle  = "─"
	dividerRight   = "┨"
	ellipsis       = "…"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

const (
	DefaultWidth = 80

	bannerPadding   = 2
	truncateReserve = 1
)

// NoBannerEnv disables box drawing when set to a true value, for logs that
// can't render it.
const NoBannerEnv = "MIR_NO_BANNER"

func bannersSuppressed() bool {
	switch strings.ToLower(os.Getenv(NoBannerEnv)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func Divider(width int) string {
	return dividerLeft + strings.Repeat(dividerMiddle, max(width-bannerPadding, 0)) + dividerRight
}

// Banner draws s inside a box width characters wide. Long lines are truncated.
func Banner(s string, width int, alignment Alignment) string {
	if bannersSuppressed() {
		return s
	}

	if width <= bannerPadding || s == "" {
		return ""
	}

	inner := width - bannerPadding
	parts := []string{boxTopLeft + strings.Repeat(boxTop, inner) + boxTopRight}

	for _, l := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		parts = append(parts, boxSide+pad(l, inner, alignment)+boxSide)
	}

	parts = append(parts, boxBottomLeft+strings.Repeat(boxBottom, inner)+boxBottomRight)

	return strings.Join(parts, "\n")
}

func countGraphic(s string) int {
	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}
	}

	return count
}

func truncateGraphic(s string, n int) (string, int) {
	var out strings.Builder

	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			if count == n {
				break
			}

			count++
		}

		out.WriteRune(r)
	}

	return out.String(), count
}

func pad(text string, width int, alignment Alignment) string {
	length := countGraphic(text)
	if length > width {
		text, length = truncateGraphic(text, width-truncateReserve)
		text += ellipsis
		length++
	}

	diff := width - length

	switch alignment {
	case AlignCenter:
		left := diff / 2 //nolint:mnd

		return strings.Repeat(" ", left) + text + strings.Repeat(" ", diff-left)
	case AlignRight:
		return strings.Repeat(" ", diff) + text
	case AlignLeft:
		fallthrough
	default:
		return text + strings.Repeat(" ", diff)
	}
}

// Step is one state visited during a run.
type Step struct {
	State    string
	Outcome  string
	Status   string
	Duration string
}

// Report summarises a finished scenario run.
type Report struct {
	Scenario   string
	RunID      string
	FinalState string
	Steps      []Step
	Err        error
}

// FormatReport renders r as a boxed table.
func FormatReport(r Report, width int) string {
	var b strings.Builder

	header := fmt.Sprintf("%s  run %s", r.Scenario, r.RunID)
	b.WriteString(Banner(header, width, AlignCenter))
	b.WriteString("\n")

	for _, s := range r.Steps {
		fmt.Fprintf(&b, "  %-24s %-8s %-10s %s\n", s.State, s.Outcome, s.Status, s.Duration)
	}

	if !bannersSuppressed() {
		b.WriteString(Divider(width))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "  final state: %s\n", r.FinalState)

	if r.Err != nil {
		fmt.Fprintf(&b, "  error: %v\n", r.Err)
	}

	return b.String()
}
