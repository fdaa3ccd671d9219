// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// SPINNER MODEL
// =============================================================================

// stopMsg ends the spinner program and clears its line.
type stopMsg struct{}

type spinnerModel struct {
	spinner   spinner.Model
	message   string
	startTime time.Time
	now       func() time.Time
	done      bool
}

func newSpinnerModel(message string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(Purple)

	return spinnerModel{
		spinner:   s,
		message:   message,
		startTime: time.Now(),
		now:       time.Now,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	elapsed := m.now().Sub(m.startTime).Truncate(time.Second)
	return fmt.Sprintf("%s %s... (%s)", m.spinner.View(), m.message, elapsed)
}

// =============================================================================
// SPINNER
// =============================================================================

// Spinner shows a progress indicator while a blocking call runs. A nil or
// disabled Spinner is a no-op.
type Spinner struct {
	program *tea.Program
	done    chan struct{}
}

// StartSpinner draws a spinner with message on w until Stop is called. It
// never reads from stdin. A nil writer returns a disabled spinner.
func StartSpinner(w io.Writer, message string) *Spinner {
	if w == nil {
		return &Spinner{}
	}

	p := tea.NewProgram(newSpinnerModel(message),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s := &Spinner{program: p, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		_, _ = p.Run()
	}()
	return s
}

// Stop removes the spinner and waits for it to release the terminal.
func (s *Spinner) Stop() {
	if s == nil || s.program == nil {
		return
	}
	s.program.Send(stopMsg{})
	<-s.done
	s.program = nil
}
