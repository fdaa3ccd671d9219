// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/cliff/internal/util"
)

// =============================================================================
// PLAN
// =============================================================================

// Plan is the ordered list of steps parsed from one LLM answer. A plan is
// never modified after parsing; the Executor records results separately.
type Plan struct {
	// ID is assigned by the Generator.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Instruction is the user request the plan answers.
	Instruction string `json:"instruction,omitempty" yaml:"instruction,omitempty"`

	// Thought is the optional THOUGHT: line.
	Thought string `json:"thought,omitempty" yaml:"thought,omitempty"`

	Steps     []Step    `json:"steps" yaml:"steps"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}

// IsEmpty reports whether the plan has no steps.
func (p *Plan) IsEmpty() bool {
	return p.Len() == 0
}

// Count returns the number of steps of kind k.
func (p *Plan) Count(k Kind) int {
	n := 0
	for _, s := range p.Steps {
		if s.Kind == k {
			n++
		}
	}
	return n
}

// =============================================================================
// EXECUTION STATE
// =============================================================================

// State is the lifecycle position of a plan inside the Executor.
type State int

const (
	// StateParsed - plan produced, nothing has happened yet
	StateParsed State = iota

	// StateAwaitingConfirmation - the confirm callback is running
	StateAwaitingConfirmation

	// StateRunning - steps are executing
	StateRunning

	// StateCompleted - every step has a result
	StateCompleted

	// StateAborted - the user declined the plan
	StateAborted
)

// String returns the string representation of a state.
func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// =============================================================================
// STEP RESULT
// =============================================================================

// Outcome classifies a step result.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailed
	OutcomeSkipped
)

// String returns the string representation of an outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Skip reasons.
const (
	ReasonNotConfirmed   = "not confirmed"
	ReasonPreviousFailed = "previous step failed"
	ReasonCancelled      = "cancelled"
)

// StepResult is what happened when a step ran, or why it did not.
type StepResult struct {
	Outcome Outcome `json:"outcome" yaml:"outcome"`

	// Output is the command output, or the user's answer for AskUser.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Truncated reports that command output hit the capture limit.
	Truncated bool `json:"truncated,omitempty" yaml:"truncated,omitempty"`

	// BytesWritten is set for a successful CreateFile.
	BytesWritten int64 `json:"bytes_written,omitempty" yaml:"bytes_written,omitempty"`

	// ExitCode is set for RunCommand; -1 if the command never exited.
	ExitCode int `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`

	// Error describes a failure.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Reason explains a skip.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Skipped returns a result for a step that never ran.
func Skipped(reason string) StepResult {
	return StepResult{Outcome: OutcomeSkipped, Reason: reason}
}

// Succeeded reports a successful outcome.
func (r StepResult) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Describe returns a one-line description of the result.
func (r StepResult) Describe() string {
	switch r.Outcome {
	case OutcomeSuccess:
		if r.BytesWritten > 0 {
			return fmt.Sprintf("success (%d bytes written)", r.BytesWritten)
		}
		return "success"
	case OutcomeFailed:
		if r.Error != "" {
			return "failed: " + r.Error
		}
		return "failed"
	case OutcomeSkipped:
		return "skipped: " + r.Reason
	default:
		return r.Outcome.String()
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

// Entry pairs a step with its result.
type Entry struct {
	// Index is the 0-based position of the step in the plan.
	Index  int        `json:"index" yaml:"index"`
	Step   Step       `json:"step" yaml:"step"`
	Result StepResult `json:"result" yaml:"result"`
}

// Answer is a question the plan asked and the user's reply.
type Answer struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Summary is the report of one Execute call.
type Summary struct {
	PlanID      string    `json:"plan_id,omitempty" yaml:"plan_id,omitempty"`
	Instruction string    `json:"instruction,omitempty" yaml:"instruction,omitempty"`
	State       State     `json:"state" yaml:"state"`
	Entries     []Entry   `json:"entries" yaml:"entries"`
	Answers     []Answer  `json:"answers,omitempty" yaml:"answers,omitempty"`
	Success     bool      `json:"success" yaml:"success"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at" yaml:"finished_at"`
}

// Executed returns how many steps actually ran.
func (s *Summary) Executed() int {
	return s.count(OutcomeSuccess) + s.count(OutcomeFailed)
}

// Failed returns how many steps failed.
func (s *Summary) Failed() int {
	return s.count(OutcomeFailed)
}

// Skipped returns how many steps never ran.
func (s *Summary) Skipped() int {
	return s.count(OutcomeSkipped)
}

func (s *Summary) count(o Outcome) int {
	n := 0
	for _, e := range s.Entries {
		if e.Result.Outcome == o {
			n++
		}
	}
	return n
}

// FirstFailure returns the first failed entry, or nil.
func (s *Summary) FirstFailure() *Entry {
	for i := range s.Entries {
		if s.Entries[i].Result.Outcome == OutcomeFailed {
			return &s.Entries[i]
		}
	}
	return nil
}

// Headline returns a one-line outcome such as "3 steps: 2 succeeded, 1 failed".
func (s *Summary) Headline() string {
	if s.State == StateAborted {
		return fmt.Sprintf("aborted: %d steps not confirmed", len(s.Entries))
	}
	total := len(s.Entries)
	parts := []string{fmt.Sprintf("%d succeeded", s.count(OutcomeSuccess))}
	if n := s.Failed(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	if n := s.Skipped(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	noun := "steps"
	if total == 1 {
		noun = "step"
	}
	return fmt.Sprintf("%d %s: %s", total, noun, strings.Join(parts, ", "))
}

// =============================================================================
// HISTORY
// =============================================================================

// historyOutputLimit caps each step's output when history is replayed into
// a prompt.
const historyOutputLimit = 4096

// History is the running record of executed steps and answers across the
// plans of one act invocation. It feeds follow-up planning prompts.
type History struct {
	Entries []Entry
}

// Add appends an executed entry. Skipped entries are ignored.
func (h *History) Add(e Entry) {
	if h == nil || e.Result.Outcome == OutcomeSkipped {
		return
	}
	h.Entries = append(h.Entries, e)
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Entries)
}

// Format renders the history for inclusion in a prompt.
func (h *History) Format() string {
	if h.Len() == 0 {
		return ""
	}

	var b strings.Builder
	for i, e := range h.Entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Step.String())
		switch {
		case e.Step.Kind == KindAskUser && e.Result.Succeeded():
			fmt.Fprintf(&b, "   User answered: %s\n", e.Result.Output)
			continue
		case e.Step.Kind == KindRunCommand:
			fmt.Fprintf(&b, "   Result: %s (exit code %d)\n", e.Result.Outcome, e.Result.ExitCode)
		default:
			fmt.Fprintf(&b, "   Result: %s\n", e.Result.Describe())
		}
		if e.Step.Kind == KindRunCommand && e.Result.Error != "" && e.Result.ExitCode == -1 {
			fmt.Fprintf(&b, "   Error: %s\n", e.Result.Error)
		}
		if e.Result.Output != "" {
			out, cut := util.TruncateBytes(e.Result.Output, historyOutputLimit)
			if cut {
				out += "\n[output truncated]"
			}
			b.WriteString("   Output:\n")
			for _, line := range strings.Split(out, "\n") {
				b.WriteString("   | " + line + "\n")
			}
		}
	}
	return b.String()
}
