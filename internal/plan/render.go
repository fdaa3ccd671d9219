// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"fmt"
	"strings"

	"github.com/jeranaias/cliff/internal/util"
)

// outputPreviewLines caps command output shown per step in a text summary.
const outputPreviewLines = 20

// FormatPlan renders p as plain text for review. Every step shows the exact
// path, command or question it acts on; file content is shown in full.
func FormatPlan(p *Plan) string {
	var b strings.Builder
	if p.Thought != "" {
		fmt.Fprintf(&b, "Thought: %s\n\n", p.Thought)
	}
	if p.IsEmpty() {
		b.WriteString("The plan has no steps.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Plan (%d %s):\n", len(p.Steps), plural(len(p.Steps), "step", "steps"))
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, s.String())
		if s.Kind == KindCreateFile {
			for _, line := range contentLines(s.Content) {
				b.WriteString("     | " + line + "\n")
			}
		}
	}
	return b.String()
}

// FormatSummary renders a summary as plain text.
func FormatSummary(s *Summary) string {
	var b strings.Builder
	for _, e := range s.Entries {
		fmt.Fprintf(&b, "%3d. [%s] %s\n", e.Index+1, e.Result.Outcome, util.TruncateWidth(e.Step.String(), 72))
		switch e.Result.Outcome {
		case OutcomeFailed:
			fmt.Fprintf(&b, "     error: %s\n", e.Result.Error)
		case OutcomeSkipped:
			fmt.Fprintf(&b, "     reason: %s\n", e.Result.Reason)
		}
		if e.Step.Kind == KindAskUser && e.Result.Succeeded() {
			fmt.Fprintf(&b, "     answer: %s\n", e.Result.Output)
			continue
		}
		if e.Result.Output != "" {
			lines := strings.Split(e.Result.Output, "\n")
			more := 0
			if len(lines) > outputPreviewLines {
				more = len(lines) - outputPreviewLines
				lines = lines[:outputPreviewLines]
			}
			for _, line := range lines {
				b.WriteString("     | " + line + "\n")
			}
			if more > 0 {
				fmt.Fprintf(&b, "     | ... %d more %s\n", more, plural(more, "line", "lines"))
			}
		}
	}
	b.WriteString(s.Headline() + "\n")
	return b.String()
}

// contentLines splits file content for display without the final newline.
func contentLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
