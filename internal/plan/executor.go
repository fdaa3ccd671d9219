// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/cliff/internal/logging"
	"github.com/jeranaias/cliff/internal/tools"
)

// =============================================================================
// CALLBACKS
// =============================================================================

// ConfirmFunc shows the whole plan to the user and reports approval.
type ConfirmFunc func(p *Plan) bool

// AskFunc asks the user a question and returns the answer.
type AskFunc func(question string) (string, error)

// ProgressCallback is called as each step starts (with StateRunning) and
// once more when the run ends (index == total).
type ProgressCallback func(index, total int, step Step, state State)

// ErrNoAskFunc is the failure of an AskUser step run without an AskFunc.
var ErrNoAskFunc = errors.New("no way to ask the user")

// ErrInvalidTransition is returned by an illegal state change.
var ErrInvalidTransition = errors.New("invalid state transition")

// =============================================================================
// EXECUTOR
// =============================================================================

// Executor runs confirmed plans one step at a time.
//
// An Executor runs one plan at a time; concurrent Execute calls on the same
// Executor are serialised.
type Executor struct {
	files *tools.FileWriter
	shell *tools.ShellRunner
	log   *logrus.Entry

	// run serialises Execute calls
	run sync.Mutex

	// mu protects state, onProgress and the options below
	mu            sync.RWMutex
	state         State
	onProgress    ProgressCallback
	stopOnFailure bool
	history       *History
}

// NewExecutor creates an executor that writes files with files and runs
// commands with shell. A nil logger logs through the standard logger.
func NewExecutor(files *tools.FileWriter, shell *tools.ShellRunner, log *logrus.Entry) *Executor {
	if files == nil {
		files = &tools.FileWriter{}
	}
	if shell == nil {
		shell = &tools.ShellRunner{}
	}
	if log == nil {
		log = logging.Component(nil, "executor")
	}
	return &Executor{
		files: files,
		shell: shell,
		log:   log,
	}
}

// SetProgressCallback sets the progress callback function.
func (e *Executor) SetProgressCallback(cb ProgressCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onProgress = cb
}

// SetStopOnFailure makes steps after the first failure be skipped instead
// of run.
func (e *Executor) SetStopOnFailure(stop bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopOnFailure = stop
}

// SetHistory records every executed step and answer into h.
func (e *Executor) SetHistory(h *History) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = h
}

// State returns the state of the current or last run.
func (e *Executor) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

var transitions = map[State][]State{
	StateParsed:               {StateAwaitingConfirmation, StateRunning},
	StateAwaitingConfirmation: {StateRunning, StateAborted},
	StateRunning:              {StateCompleted},
}

// transition moves to the next state. An illegal move is logged and
// refused.
func (e *Executor) transition(to State) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, allowed := range transitions[e.state] {
		if allowed == to {
			e.state = to
			return nil
		}
	}
	err := fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.state, to)
	e.log.WithError(err).Warn("refusing state change")
	return err
}

func (e *Executor) notifyProgress(index, total int, step Step, state State) {
	e.mu.RLock()
	cb := e.onProgress
	e.mu.RUnlock()

	if cb != nil {
		cb(index, total, step, state)
	}
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute asks confirm to approve p and, if approved, runs every step in
// order. A failing step never aborts the run unless stop-on-failure is set;
// every step gets exactly one result in the returned summary.
//
// An empty plan completes without calling confirm. Nothing is written or
// spawned before confirm returns true.
func (e *Executor) Execute(ctx context.Context, p *Plan, confirm ConfirmFunc, ask AskFunc) *Summary {
	e.run.Lock()
	defer e.run.Unlock()

	e.mu.Lock()
	e.state = StateParsed
	stopOnFailure := e.stopOnFailure
	history := e.history
	e.mu.Unlock()

	if p == nil {
		p = &Plan{}
	}
	total := len(p.Steps)
	log := e.log.WithFields(logrus.Fields{"plan": p.ID, "steps": total})

	summary := &Summary{
		PlanID:      p.ID,
		Instruction: p.Instruction,
		Entries:     make([]Entry, 0, total),
		StartedAt:   time.Now(),
	}

	if total > 0 {
		_ = e.transition(StateAwaitingConfirmation)
		if confirm == nil || !confirm(p) {
			_ = e.transition(StateAborted)
			for i, step := range p.Steps {
				summary.Entries = append(summary.Entries, Entry{Index: i, Step: step, Result: Skipped(ReasonNotConfirmed)})
			}
			log.Info("plan not confirmed")
			return e.finish(summary, StateAborted)
		}
	}

	_ = e.transition(StateRunning)
	log.Debug("running plan")

	skipReason := ""
	for i, step := range p.Steps {
		if skipReason == "" && ctx.Err() != nil {
			skipReason = ReasonCancelled
		}
		if skipReason != "" {
			summary.Entries = append(summary.Entries, Entry{Index: i, Step: step, Result: Skipped(skipReason)})
			continue
		}

		e.notifyProgress(i, total, step, StateRunning)
		result := e.runStep(ctx, step, ask)
		entry := Entry{Index: i, Step: step, Result: result}
		summary.Entries = append(summary.Entries, entry)
		history.Add(entry)

		stepLog := log.WithFields(logrus.Fields{"step": i + 1, "kind": step.Kind.String(), "outcome": result.Outcome.String()})
		if result.Outcome == OutcomeFailed {
			stepLog.WithField("error", result.Error).Info("step failed")
			if stopOnFailure {
				skipReason = ReasonPreviousFailed
			}
		} else {
			stepLog.Debug("step finished")
		}

		if step.Kind == KindAskUser && result.Succeeded() {
			summary.Answers = append(summary.Answers, Answer{Question: step.Question, Answer: result.Output})
		}
	}

	_ = e.transition(StateCompleted)
	e.notifyProgress(total, total, Step{}, StateCompleted)
	return e.finish(summary, StateCompleted)
}

func (e *Executor) finish(s *Summary, state State) *Summary {
	s.State = state
	s.FinishedAt = time.Now()
	s.Success = state == StateCompleted
	for _, entry := range s.Entries {
		if !entry.Result.Succeeded() {
			s.Success = false
			break
		}
	}
	return s
}

// runStep performs a single step. It never returns an error: failures are
// part of the result.
func (e *Executor) runStep(ctx context.Context, step Step, ask AskFunc) StepResult {
	start := time.Now()
	var result StepResult

	switch step.Kind {
	case KindCreateFile:
		n, err := e.files.Write(step.Path, step.Content)
		if err != nil {
			result = StepResult{Outcome: OutcomeFailed, Error: err.Error()}
		} else {
			result = StepResult{Outcome: OutcomeSuccess, BytesWritten: n}
		}

	case KindRunCommand:
		res, err := e.shell.Run(ctx, step.Command)
		result = StepResult{
			Output:    res.Output,
			Truncated: res.Truncated,
			ExitCode:  res.ExitCode,
		}
		switch {
		case err != nil:
			result.Outcome = OutcomeFailed
			result.Error = err.Error()
		case !res.Success():
			result.Outcome = OutcomeFailed
			result.Error = fmt.Sprintf("exit code %d", res.ExitCode)
		default:
			result.Outcome = OutcomeSuccess
		}

	case KindAskUser:
		if ask == nil {
			result = StepResult{Outcome: OutcomeFailed, Error: ErrNoAskFunc.Error()}
			break
		}
		answer, err := ask(step.Question)
		if err != nil {
			result = StepResult{Outcome: OutcomeFailed, Error: err.Error()}
		} else {
			result = StepResult{Outcome: OutcomeSuccess, Output: answer}
		}

	default:
		result = StepResult{Outcome: OutcomeFailed, Error: step.Validate().Error()}
	}

	result.Duration = time.Since(start)
	return result
}
