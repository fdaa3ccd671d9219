// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/jeranaias/cliff/internal/diff"
	"github.com/jeranaias/cliff/internal/plan"
	"github.com/jeranaias/cliff/internal/util"
)

// summaryOutputLines caps the command output shown per step.
const summaryOutputLines = 20

// =============================================================================
// PLAN REVIEW
// =============================================================================

// Overwrites maps the index of a CreateFile step to how its content differs
// from the file already on disk.
type Overwrites map[int]diff.Stats

// RenderPlan renders a plan for review before confirmation. Every step shows
// its exact path, command or question; file content is shown in full.
// CreateFile steps listed in existing are flagged as overwrites.
func RenderPlan(p *plan.Plan, t *Theme, existing Overwrites) string {
	var b strings.Builder
	if p.Thought != "" {
		b.WriteString(t.Thought.Render("Thought: "+p.Thought) + "\n\n")
	}
	if p.IsEmpty() {
		b.WriteString(t.Muted.Render("The plan has no steps.") + "\n")
		return b.String()
	}

	noun := "steps"
	if p.Len() == 1 {
		noun = "step"
	}
	b.WriteString(t.Heading.Render(fmt.Sprintf("Plan (%d %s):", p.Len(), noun)) + "\n")

	for i, s := range p.Steps {
		b.WriteString(t.Index.Render(fmt.Sprintf("%3d.", i+1)) + " ")
		b.WriteString(t.Tag.Render(util.PadRight(s.Kind.Tag(), 11)) + " ")
		switch s.Kind {
		case plan.KindCreateFile:
			b.WriteString(t.Path.Render(s.Path))
			b.WriteString(t.Muted.Render(fmt.Sprintf(" (%d bytes", len(s.Content))))
			if stats, ok := existing[i]; ok {
				b.WriteString(t.Muted.Render(", ") + t.Warning.Render("overwrites existing file: "+stats.String()))
			}
			b.WriteString(t.Muted.Render(")") + "\n")
			writeContent(&b, s, t)
		case plan.KindRunCommand:
			b.WriteString(t.Command.Render("$ "+s.Command) + "\n")
		case plan.KindAskUser:
			b.WriteString(t.Question.Render(s.Question) + "\n")
		}
	}
	return b.String()
}

func writeContent(b *strings.Builder, s plan.Step, t *Theme) {
	if s.Content == "" {
		return
	}
	content := strings.TrimSuffix(s.Content, "\n")
	highlighted := strings.TrimSuffix(Highlight(content, s.Path, t.Profile), "\n")
	gutter := t.Gutter.Render("     | ")
	for _, line := range strings.Split(highlighted, "\n") {
		b.WriteString(gutter + line + "\n")
	}
}

// =============================================================================
// EXECUTION SUMMARY
// =============================================================================

// RenderSummary renders the per-step results of a run.
func RenderSummary(s *plan.Summary, t *Theme) string {
	var b strings.Builder
	for _, e := range s.Entries {
		var mark string
		switch e.Result.Outcome {
		case plan.OutcomeSuccess:
			mark = t.Success.Render("ok  ")
		case plan.OutcomeFailed:
			mark = t.Failure.Render("FAIL")
		default:
			mark = t.Skipped.Render("skip")
		}
		b.WriteString(t.Index.Render(fmt.Sprintf("%3d.", e.Index+1)) + " " + mark + " ")
		b.WriteString(util.TruncateWidth(e.Step.String(), TerminalWidth()-12) + "\n")

		switch e.Result.Outcome {
		case plan.OutcomeFailed:
			b.WriteString("          " + t.Failure.Render(e.Result.Error) + "\n")
		case plan.OutcomeSkipped:
			b.WriteString("          " + t.Muted.Render(e.Result.Reason) + "\n")
		}

		if e.Step.Kind == plan.KindAskUser && e.Result.Succeeded() {
			b.WriteString("          " + t.Muted.Render("answer: ") + e.Result.Output + "\n")
			continue
		}
		writeOutput(&b, e.Result, t)
	}

	headline := s.Headline()
	switch {
	case s.Success:
		b.WriteString(t.Success.Render(headline) + "\n")
	case s.State == plan.StateAborted:
		b.WriteString(t.Warning.Render(headline) + "\n")
	default:
		b.WriteString(t.Failure.Render(headline) + "\n")
	}
	return b.String()
}

func writeOutput(b *strings.Builder, r plan.StepResult, t *Theme) {
	if r.Output == "" {
		return
	}
	lines := strings.Split(r.Output, "\n")
	more := 0
	if len(lines) > summaryOutputLines {
		more = len(lines) - summaryOutputLines
		lines = lines[len(lines)-summaryOutputLines:]
	}
	gutter := t.Gutter.Render("          | ")
	if more > 0 {
		b.WriteString(gutter + t.Muted.Render(fmt.Sprintf("... %d earlier lines", more)) + "\n")
	}
	for _, line := range lines {
		b.WriteString(gutter + line + "\n")
	}
	if r.Truncated {
		b.WriteString(gutter + t.Muted.Render("[output truncated]") + "\n")
	}
}
