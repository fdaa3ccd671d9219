// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/cliff/internal/config"
	"github.com/jeranaias/cliff/internal/plan"
)

// ErrNoAnswer is returned when stdin closes before an answer was typed.
var ErrNoAnswer = errors.New("no answer: input closed")

// =============================================================================
// CONFIRMATION AND QUESTIONS
// =============================================================================

// readLine reads one line from the command input. A final line without a
// newline is returned as is; io.EOF is only returned when nothing was read.
func (a *app) readLine() (string, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	line, err := a.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirmFunc returns the plan confirmation gate.
//
// Confirmation flow:
//  1. --auto-confirm accepts without prompting
//  2. stdin that is not a terminal declines (nobody can answer)
//  3. otherwise a [y/N] prompt is shown; anything but y/yes declines
func (a *app) confirmFunc(autoConfirm bool) plan.ConfirmFunc {
	return func(p *plan.Plan) bool {
		if autoConfirm {
			return true
		}
		if !a.stdinTTY {
			fmt.Fprintln(a.errOut, "stdin is not a terminal; re-run with --auto-confirm to execute the plan")
			return false
		}

		fmt.Fprintf(a.errOut, "Execute %s? [y/N]: ", pluralSteps(p.Len()))
		response, err := a.readLine()
		if err != nil {
			fmt.Fprintln(a.errOut)
			return false
		}
		response = strings.TrimSpace(strings.ToLower(response))
		return response == "y" || response == "yes"
	}
}

// askUser answers AskUser steps from the command input.
func (a *app) askUser(question string) (string, error) {
	fmt.Fprintf(a.errOut, "%s\n> ", question)
	answer, err := a.readLine()
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(a.errOut)
		return "", ErrNoAnswer
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func pluralSteps(n int) string {
	if n == 1 {
		return "1 step"
	}
	return fmt.Sprintf("%d steps", n)
}

// =============================================================================
// SESSION INPUT
// =============================================================================

// lineReader reads session input one line at a time. ReadLine returns
// io.EOF when input ends or the user aborts.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// newLineReader picks line editing with history on a terminal and plain
// line reads otherwise.
func (a *app) newLineReader() lineReader {
	if a.stdinTTY && a.in == os.Stdin {
		return newLinerReader()
	}
	return &plainReader{app: a}
}

// plainReader reads from the command input without echoing a prompt.
type plainReader struct {
	app *app
}

func (r *plainReader) ReadLine(string) (string, error) {
	return r.app.readLine()
}

func (r *plainReader) Close() error {
	return nil
}

// linerReader provides input history and line editing for sessions.
// Supports arrow keys for history navigation.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	// Fall back to the temp directory if the config dir is unavailable
	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}

	r := &linerReader{
		line:        line,
		historyFile: filepath.Join(dir, "session_history"),
	}
	r.loadHistory()
	return r
}

func (r *linerReader) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = r.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine prompts and records non-empty input in the history. Ctrl+C is
// reported as io.EOF.
func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}
