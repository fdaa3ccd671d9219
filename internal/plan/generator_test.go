// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	promptctx "github.com/jeranaias/cliff/internal/context"
	"github.com/jeranaias/cliff/internal/logging"
)

// fakeClient answers every prompt with a canned reply and remembers the
// prompts it saw.
type fakeClient struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func newTestGenerator(client LLMClient) *Generator {
	g := NewGenerator(client, logging.Discard())
	g.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return g
}

func TestGenerate(t *testing.T) {
	client := &fakeClient{reply: "```\nRUN command=ls\n```"}
	g := newTestGenerator(client)
	pctx := promptctx.PromptContext{Sources: []promptctx.Source{{ID: "notes.md", Text: "use make"}}}

	p, raw, err := g.Generate(context.Background(), "build it", pctx, nil)
	require.NoError(t, err)

	assert.Equal(t, client.reply, raw)
	assert.Equal(t, "build it", p.Instruction)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), p.CreatedAt)
	_, err = uuid.Parse(p.ID)
	assert.NoError(t, err)
	assert.Equal(t, []Step{{Kind: KindRunCommand, Command: "ls"}}, p.Steps)

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "CREATE_FILE path=")
	assert.Contains(t, prompt, "Question: build it")
	assert.Contains(t, prompt, "Context from notes.md:\nuse make")
	assert.NotContains(t, prompt, "Steps already executed")
}

func TestGenerateIncludesHistory(t *testing.T) {
	client := &fakeClient{reply: "THOUGHT: done"}
	g := newTestGenerator(client)
	history := &History{}
	history.Add(Entry{Step: Step{Kind: KindAskUser, Question: "Name?"}, Result: StepResult{Outcome: OutcomeSuccess, Output: "cliff"}})
	history.Add(Entry{Step: Step{Kind: KindRunCommand, Command: "ls"}, Result: Skipped(ReasonCancelled)})

	p, _, err := g.Generate(context.Background(), "next", promptctx.PromptContext{}, history)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	assert.Equal(t, "done", p.Thought)

	assert.Equal(t, 1, history.Len())
	assert.Contains(t, client.prompts[0], "Steps already executed")
	assert.Contains(t, client.prompts[0], "ASK_USER Name?")
	assert.Contains(t, client.prompts[0], "User answered: cliff")
}

func TestGenerateParseFailureKeepsRaw(t *testing.T) {
	client := &fakeClient{reply: "Sure, here is what I would do."}
	g := newTestGenerator(client)

	p, raw, err := g.Generate(context.Background(), "x", promptctx.PromptContext{}, nil)
	assert.Nil(t, p)
	assert.Equal(t, client.reply, raw)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, UnexpectedText, perr.Kind)
}

func TestGenerateClientError(t *testing.T) {
	boom := errors.New("backend down")
	g := newTestGenerator(&fakeClient{err: boom})

	_, raw, err := g.Generate(context.Background(), "x", promptctx.PromptContext{}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, raw)

	_, _, err = newTestGenerator(nil).Generate(context.Background(), "x", promptctx.PromptContext{}, nil)
	assert.ErrorIs(t, err, ErrNoClient)
}

func TestRecover(t *testing.T) {
	client := &fakeClient{reply: "RUN command=make"}
	g := newTestGenerator(client)

	failed := Entry{Index: 0, Step: Step{Kind: KindRunCommand, Command: "mak"}, Result: StepResult{Outcome: OutcomeFailed, ExitCode: 127, Output: "mak: not found", Error: "exit code 127"}}
	summary := &Summary{State: StateCompleted, Entries: []Entry{
		failed,
		{Index: 1, Step: Step{Kind: KindRunCommand, Command: "./app"}, Result: Skipped(ReasonPreviousFailed)},
	}}
	history := &History{}
	history.Add(failed)

	p, _, err := g.Recover(context.Background(), "build and run", summary, history)
	require.NoError(t, err)
	assert.Equal(t, "make", p.Steps[0].Command)
	assert.Equal(t, "build and run", p.Instruction)

	prompt := client.prompts[0]
	assert.Contains(t, prompt, "did not fully succeed")
	assert.Contains(t, prompt, "first failure was step 1 (RUN_COMMAND mak): failed: exit code 127")
	assert.Contains(t, prompt, "mak: not found")
	assert.Contains(t, prompt, "Step 2 (RUN_COMMAND ./app) was skipped: previous step failed")
	assert.Contains(t, prompt, "Question: build and run")
}

func TestFormatPlan(t *testing.T) {
	p := &Plan{Thought: "two steps", Steps: []Step{
		{Kind: KindCreateFile, Path: "a.txt", Content: "one\ntwo\n"},
		{Kind: KindRunCommand, Command: "cat a.txt"},
	}}
	assert.Equal(t,
		"Thought: two steps\n\nPlan (2 steps):\n  1. CREATE_FILE a.txt\n     | one\n     | two\n  2. RUN_COMMAND cat a.txt\n",
		FormatPlan(p))

	assert.Equal(t, "The plan has no steps.\n", FormatPlan(&Plan{}))
}

func TestFormatSummary(t *testing.T) {
	s := &Summary{State: StateCompleted, Entries: []Entry{
		{Index: 0, Step: Step{Kind: KindRunCommand, Command: "false"}, Result: StepResult{Outcome: OutcomeFailed, ExitCode: 1, Error: "exit code 1"}},
		{Index: 1, Step: Step{Kind: KindAskUser, Question: "Name?"}, Result: StepResult{Outcome: OutcomeSuccess, Output: "cliff"}},
	}}
	out := FormatSummary(s)
	assert.Contains(t, out, "  1. [failed] RUN_COMMAND false\n     error: exit code 1\n")
	assert.Contains(t, out, "  2. [success] ASK_USER Name?\n     answer: cliff\n")
	assert.Contains(t, out, "2 steps: 1 succeeded, 1 failed\n")
}
