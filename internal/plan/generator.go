// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	promptctx "github.com/jeranaias/cliff/internal/context"
	"github.com/jeranaias/cliff/internal/logging"
)

// =============================================================================
// LLM CLIENT INTERFACE
// =============================================================================

// LLMClient sends a prompt to the active model and returns its answer.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrNoClient is returned when a Generator has no LLM client.
var ErrNoClient = errors.New("LLM client not configured")

// =============================================================================
// PLAN GENERATOR
// =============================================================================

// Generator asks the LLM for plans in the step notation and parses them.
type Generator struct {
	client LLMClient
	log    *logrus.Entry
	now    func() time.Time
}

// NewGenerator creates a new plan generator.
func NewGenerator(client LLMClient, log *logrus.Entry) *Generator {
	if log == nil {
		log = logging.Component(nil, "planner")
	}
	return &Generator{client: client, log: log, now: time.Now}
}

// Generate asks for a plan that carries out instruction. Executed steps in
// history are included so a follow-up plan does not repeat them.
//
// The raw answer is returned alongside the plan, and also when parsing
// fails so the caller can show what the model said.
func (g *Generator) Generate(ctx context.Context, instruction string, pctx promptctx.PromptContext, history *History) (*Plan, string, error) {
	return g.request(ctx, instruction, BuildPrompt(instruction, pctx, history))
}

// Recover asks for a follow-up plan after summary reported failures.
func (g *Generator) Recover(ctx context.Context, instruction string, summary *Summary, history *History) (*Plan, string, error) {
	return g.request(ctx, instruction, BuildRecoveryPrompt(instruction, summary, history))
}

func (g *Generator) request(ctx context.Context, instruction, prompt string) (*Plan, string, error) {
	if g.client == nil {
		return nil, "", ErrNoClient
	}

	g.log.WithField("prompt_bytes", len(prompt)).Debug("requesting plan")
	raw, err := g.client.Complete(ctx, prompt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate plan: %w", err)
	}

	p, err := Parse(raw)
	if err != nil {
		g.log.WithError(err).Debug("plan rejected")
		return nil, raw, fmt.Errorf("failed to parse plan: %w", err)
	}

	p.ID = uuid.New().String()
	p.Instruction = instruction
	p.CreatedAt = g.now()

	g.log.WithFields(logrus.Fields{"plan": p.ID, "steps": len(p.Steps)}).Debug("plan parsed")
	return p, raw, nil
}

// =============================================================================
// PROMPTS
// =============================================================================

const planningInstructions = `You are a command-line assistant that carries out the user's instruction on their machine.
Reply ONLY with a plan written in the notation below. Do not add explanations, numbering or Markdown.

Notation (one step per header line, executed top to bottom):

THOUGHT: <optional single line describing your approach>
CREATE_FILE path=<file path>
<the complete file content, written literally>
END
RUN_COMMAND command=<a single shell command line>
ASK_USER question=<a question for the user>

Rules:
- CREATE_FILE creates or overwrites the file; its content ends at a line containing only END.
- RUN_COMMAND output and exit code are captured; commands must not wait for keyboard input.
- Use ASK_USER only for information you cannot find out with a command.
- No other step types exist. If nothing needs to be done, reply with only a THOUGHT line.`

// BuildPrompt builds the planning prompt for instruction.
func BuildPrompt(instruction string, pctx promptctx.PromptContext, history *History) string {
	var b strings.Builder
	b.WriteString(planningInstructions)
	b.WriteString("\n\n")

	if history.Len() > 0 {
		b.WriteString("Steps already executed (with their results):\n")
		b.WriteString(history.Format())
		b.WriteString("\n")
	}

	b.WriteString(pctx.Compose(instruction))
	return b.String()
}

// BuildRecoveryPrompt builds the prompt asking for a plan that finishes
// instruction after some steps of the previous plan failed.
func BuildRecoveryPrompt(instruction string, summary *Summary, history *History) string {
	var b strings.Builder
	b.WriteString(planningInstructions)
	b.WriteString("\n\n")

	b.WriteString("A previous plan for this instruction did not fully succeed.\n")
	if history.Len() > 0 {
		b.WriteString("Steps executed so far (with their results):\n")
		b.WriteString(history.Format())
	}
	if summary != nil {
		if f := summary.FirstFailure(); f != nil {
			fmt.Fprintf(&b, "\nThe first failure was step %d (%s): %s\n", f.Index+1, f.Step.String(), f.Result.Describe())
		}
		for _, e := range summary.Entries {
			if e.Result.Outcome == OutcomeSkipped {
				fmt.Fprintf(&b, "Step %d (%s) was skipped: %s\n", e.Index+1, e.Step.String(), e.Result.Reason)
			}
		}
	}
	b.WriteString("\nWrite a new plan that completes the instruction. Do not repeat steps that already succeeded.\n\n")
	b.WriteString("Question: " + instruction + "\n")
	return b.String()
}
