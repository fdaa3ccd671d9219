// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// DefaultMaxOutputSize caps captured command output.
const DefaultMaxOutputSize = 1 << 20

// waitDelay bounds how long Wait blocks on pipes held open by orphaned
// grandchildren after the command is killed.
const waitDelay = 2 * time.Second

// ErrCommandTimeout is returned when a command exceeds ShellRunner.Timeout.
var ErrCommandTimeout = errors.New("command timed out")

// =============================================================================
// SHELL RUNNER
// =============================================================================

// ShellRunner executes command lines through the system shell.
type ShellRunner struct {
	// Shell overrides $SHELL; ignored on Windows.
	Shell string

	// WorkDir is the working directory; empty means the current one.
	WorkDir string

	// Timeout bounds each command; zero means no limit.
	Timeout time.Duration

	// MaxOutputSize caps the captured output (default: 1MB).
	MaxOutputSize int
}

// CommandResult is the outcome of a command that ran to completion.
type CommandResult struct {
	// Output is stdout and stderr interleaved, trailing newlines trimmed.
	Output string
	// ExitCode is the process exit status; -1 if killed by a signal.
	ExitCode int
	// Truncated reports that output beyond MaxOutputSize was dropped.
	Truncated bool
	Duration  time.Duration
}

// Success reports a zero exit status.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// ResolveShell returns the program and leading arguments used to run a
// command line.
func ResolveShell(configured string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	shell := configured
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return shell, []string{"-c"}
}

// Run executes command and waits for it. A non-zero exit is not an error:
// it is reported in CommandResult.ExitCode. Errors mean the command could
// not be started, timed out, or was cancelled; the partial output is still
// returned.
func (r *ShellRunner) Run(ctx context.Context, command string) (CommandResult, error) {
	start := time.Now()

	if strings.TrimSpace(command) == "" {
		return CommandResult{ExitCode: -1}, errors.New("command is required")
	}

	maxOutput := r.MaxOutputSize
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputSize
	}

	cmdCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	shell, args := ResolveShell(r.Shell)
	cmd := exec.CommandContext(cmdCtx, shell, append(args, command)...)
	cmd.Dir = r.WorkDir
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	// One writer for both streams keeps their relative order
	out := &cappedBuffer{limit: maxOutput}
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	result := CommandResult{
		Output:    strings.TrimRight(out.String(), "\r\n"),
		Truncated: out.truncated,
		Duration:  time.Since(start),
	}

	// Context errors take priority over the exit status of a killed child
	if ctxErr := cmdCtx.Err(); ctxErr != nil {
		result.ExitCode = -1
		if ctx.Err() == nil && errors.Is(ctxErr, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w after %s", ErrCommandTimeout, r.Timeout)
		}
		return result, ctx.Err()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		return result, fmt.Errorf("failed to start %s: %w", shell, err)
	}

	return result, nil
}

// cappedBuffer keeps the first limit bytes written to it and drops the rest.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       strings.Builder
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
