// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cliff/internal/logging"
	"github.com/jeranaias/cliff/internal/tools"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("commands use POSIX shell syntax")
	}
}

func newTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	dir := t.TempDir()
	e := NewExecutor(
		&tools.FileWriter{BaseDir: dir},
		&tools.ShellRunner{Shell: "/bin/sh", WorkDir: dir},
		logging.Discard(),
	)
	return e, dir
}

func mustStep(t *testing.T) func(Step, error) Step {
	return func(s Step, err error) Step {
		t.Helper()
		require.NoError(t, err)
		return s
	}
}

func approve(*Plan) bool { return true }

func TestExecute_DeclinedHasNoSideEffects(t *testing.T) {
	e, dir := newTestExecutor(t)
	step := mustStep(t)
	p := &Plan{ID: "p1", Steps: []Step{
		step(CreateFile("a.txt", "x")),
		step(RunCommand("touch ran")),
	}}

	var seen *Plan
	summary := e.Execute(context.Background(), p, func(got *Plan) bool {
		seen = got
		return false
	}, nil)

	assert.Same(t, p, seen)
	assert.Equal(t, StateAborted, summary.State)
	assert.Equal(t, StateAborted, e.State())
	assert.False(t, summary.Success)
	assert.Equal(t, 0, summary.Executed())
	require.Len(t, summary.Entries, 2)
	for _, entry := range summary.Entries {
		assert.Equal(t, Skipped(ReasonNotConfirmed), entry.Result)
	}

	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "ran"))
}

func TestExecute_NilConfirmDeclines(t *testing.T) {
	e, dir := newTestExecutor(t)
	p := &Plan{Steps: []Step{mustStep(t)(CreateFile("a.txt", "x"))}}

	summary := e.Execute(context.Background(), p, nil, nil)
	assert.Equal(t, StateAborted, summary.State)
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
}

func TestExecute_StepsRunInOrder(t *testing.T) {
	skipOnWindows(t)
	e, dir := newTestExecutor(t)
	step := mustStep(t)
	p := &Plan{Steps: []Step{
		step(CreateFile("sub/a.txt", "x")),
		step(RunCommand("cat sub/a.txt")),
	}}

	summary := e.Execute(context.Background(), p, approve, nil)

	assert.Equal(t, StateCompleted, summary.State)
	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.Executed())
	assert.Equal(t, int64(1), summary.Entries[0].Result.BytesWritten)
	assert.Equal(t, "x", summary.Entries[1].Result.Output)
	assert.Equal(t, 0, summary.Entries[1].Result.ExitCode)

	data, err := os.ReadFile(filepath.Join(dir, "sub", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestExecute_FailureIsIsolated(t *testing.T) {
	skipOnWindows(t)
	e, _ := newTestExecutor(t)
	step := mustStep(t)
	p := &Plan{Steps: []Step{
		step(RunCommand("echo broken; exit 1")),
		step(RunCommand("echo ok")),
	}}

	summary := e.Execute(context.Background(), p, approve, nil)

	assert.Equal(t, StateCompleted, summary.State)
	assert.False(t, summary.Success)

	failed := summary.Entries[0].Result
	assert.Equal(t, OutcomeFailed, failed.Outcome)
	assert.Equal(t, 1, failed.ExitCode)
	assert.Equal(t, "broken", failed.Output)
	assert.Contains(t, failed.Error, "exit code 1")

	assert.Equal(t, OutcomeSuccess, summary.Entries[1].Result.Outcome)
	assert.Equal(t, "ok", summary.Entries[1].Result.Output)
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, &summary.Entries[0], summary.FirstFailure())
}

func TestExecute_FailedCommandDoesNotBlockLaterFile(t *testing.T) {
	skipOnWindows(t)
	e, dir := newTestExecutor(t)
	step := mustStep(t)
	p := &Plan{Steps: []Step{
		step(RunCommand("exit 1")),
		step(CreateFile("b.txt", "y")),
	}}

	summary := e.Execute(context.Background(), p, approve, nil)

	assert.Equal(t, OutcomeFailed, summary.Entries[0].Result.Outcome)
	assert.Equal(t, OutcomeSuccess, summary.Entries[1].Result.Outcome)
	data, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "y", string(data))
}

func TestExecute_CreateFileFailure(t *testing.T) {
	e, dir := newTestExecutor(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "taken"), 0755))
	step := mustStep(t)
	p := &Plan{Steps: []Step{
		step(CreateFile("taken", "x")),
		step(CreateFile("b.txt", "y")),
	}}

	summary := e.Execute(context.Background(), p, approve, nil)

	assert.Equal(t, OutcomeFailed, summary.Entries[0].Result.Outcome)
	assert.Contains(t, summary.Entries[0].Result.Error, "directory")
	assert.Equal(t, OutcomeSuccess, summary.Entries[1].Result.Outcome)
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
}

func TestExecute_StopOnFailure(t *testing.T) {
	skipOnWindows(t)
	e, dir := newTestExecutor(t)
	e.SetStopOnFailure(true)
	step := mustStep(t)
	p := &Plan{Steps: []Step{
		step(RunCommand("exit 3")),
		step(CreateFile("after.txt", "x")),
		step(AskUser("still there?")),
	}}

	asked := false
	summary := e.Execute(context.Background(), p, approve, func(string) (string, error) {
		asked = true
		return "yes", nil
	})

	assert.Equal(t, StateCompleted, summary.State)
	assert.Equal(t, 3, summary.Entries[0].Result.ExitCode)
	assert.Equal(t, Skipped(ReasonPreviousFailed), summary.Entries[1].Result)
	assert.Equal(t, Skipped(ReasonPreviousFailed), summary.Entries[2].Result)
	assert.Equal(t, 1, summary.Executed())
	assert.False(t, asked)
	assert.NoFileExists(t, filepath.Join(dir, "after.txt"))
}

func TestExecute_AskUser(t *testing.T) {
	e, _ := newTestExecutor(t)
	history := &History{}
	e.SetHistory(history)
	step := mustStep(t)
	p := &Plan{Steps: []Step{
		step(AskUser("Project name?")),
		step(AskUser("Licence?")),
	}}

	summary := e.Execute(context.Background(), p, approve, func(q string) (string, error) {
		if q == "Licence?" {
			return "", errors.New("input closed")
		}
		return "cliff", nil
	})

	assert.Equal(t, []Answer{{Question: "Project name?", Answer: "cliff"}}, summary.Answers)
	assert.Equal(t, "cliff", summary.Entries[0].Result.Output)
	assert.Equal(t, OutcomeFailed, summary.Entries[1].Result.Outcome)
	assert.Equal(t, "input closed", summary.Entries[1].Result.Error)

	require.Equal(t, 2, history.Len())
	assert.Contains(t, history.Format(), "User answered: cliff")
}

func TestExecute_AskUserWithoutAskFunc(t *testing.T) {
	e, _ := newTestExecutor(t)
	p := &Plan{Steps: []Step{mustStep(t)(AskUser("name?"))}}

	summary := e.Execute(context.Background(), p, approve, nil)
	assert.Equal(t, OutcomeFailed, summary.Entries[0].Result.Outcome)
	assert.Equal(t, ErrNoAskFunc.Error(), summary.Entries[0].Result.Error)
}

func TestExecute_EmptyPlanSkipsConfirm(t *testing.T) {
	e, _ := newTestExecutor(t)

	called := false
	summary := e.Execute(context.Background(), &Plan{}, func(*Plan) bool {
		called = true
		return false
	}, nil)

	assert.False(t, called)
	assert.Equal(t, StateCompleted, summary.State)
	assert.True(t, summary.Success)
	assert.Empty(t, summary.Entries)
}

func TestExecute_CancelledContextSkipsRemaining(t *testing.T) {
	e, dir := newTestExecutor(t)
	step := mustStep(t)
	p := &Plan{Steps: []Step{
		step(CreateFile("a.txt", "x")),
		step(CreateFile("b.txt", "y")),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	e.SetProgressCallback(func(index, total int, s Step, state State) {
		if index == 0 && state == StateRunning {
			cancel()
		}
	})

	summary := e.Execute(ctx, p, approve, nil)

	assert.Equal(t, StateCompleted, summary.State)
	assert.Equal(t, OutcomeSuccess, summary.Entries[0].Result.Outcome)
	assert.Equal(t, Skipped(ReasonCancelled), summary.Entries[1].Result)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "b.txt"))
}

func TestExecute_ProgressCallback(t *testing.T) {
	e, _ := newTestExecutor(t)
	step := mustStep(t)
	p := &Plan{Steps: []Step{
		step(CreateFile("a.txt", "x")),
		step(CreateFile("b.txt", "y")),
	}}

	type call struct {
		index, total int
		state        State
	}
	var calls []call
	e.SetProgressCallback(func(index, total int, s Step, state State) {
		calls = append(calls, call{index, total, state})
	})

	e.Execute(context.Background(), p, approve, nil)
	assert.Equal(t, []call{
		{0, 2, StateRunning},
		{1, 2, StateRunning},
		{2, 2, StateCompleted},
	}, calls)
}

func TestExecute_ReusableAcrossPlans(t *testing.T) {
	e, _ := newTestExecutor(t)
	p := &Plan{Steps: []Step{mustStep(t)(CreateFile("a.txt", "x"))}}

	first := e.Execute(context.Background(), p, func(*Plan) bool { return false }, nil)
	second := e.Execute(context.Background(), p, approve, nil)

	assert.Equal(t, StateAborted, first.State)
	assert.Equal(t, StateCompleted, second.State)
	assert.True(t, second.Success)
}

func TestTransitionGuard(t *testing.T) {
	e, _ := newTestExecutor(t)
	assert.Equal(t, StateParsed, e.State())

	err := e.transition(StateCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateParsed, e.State())

	require.NoError(t, e.transition(StateAwaitingConfirmation))
	require.NoError(t, e.transition(StateAborted))
	assert.ErrorIs(t, e.transition(StateRunning), ErrInvalidTransition)
}

func TestStepConstructors(t *testing.T) {
	_, err := CreateFile(" ", "x")
	assert.ErrorIs(t, err, ErrEmptyPath)
	_, err = RunCommand("")
	assert.ErrorIs(t, err, ErrEmptyCommand)
	_, err = AskUser("\t")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	s, err := CreateFile("empty.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "CREATE_FILE empty.txt", s.String())
}

func TestSummaryHeadline(t *testing.T) {
	s := &Summary{State: StateCompleted, Entries: []Entry{
		{Result: StepResult{Outcome: OutcomeSuccess}},
		{Result: StepResult{Outcome: OutcomeFailed}},
		{Result: Skipped(ReasonPreviousFailed)},
	}}
	assert.Equal(t, "3 steps: 1 succeeded, 1 failed, 1 skipped", s.Headline())

	s.State = StateAborted
	assert.Equal(t, "aborted: 3 steps not confirmed", s.Headline())
}
