// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// COLORS
// =============================================================================

var (
	// Purple - thoughts and headings
	Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

	// Cyan - commands and paths
	Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

	// Emerald - success
	Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

	// Rose - errors and failures
	Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

	// Amber - warnings, questions and skipped steps
	Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

	// TextMuted - hints and secondary text
	TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styles used for terminal output.
type Theme struct {
	Profile termenv.Profile

	Heading  lipgloss.Style
	Thought  lipgloss.Style
	Index    lipgloss.Style
	Tag      lipgloss.Style
	Path     lipgloss.Style
	Command  lipgloss.Style
	Question lipgloss.Style
	Gutter   lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Failure  lipgloss.Style
	Skipped  lipgloss.Style
	Warning  lipgloss.Style
}

// NewTheme builds a theme that renders for profile. termenv.Ascii produces
// plain text.
func NewTheme(w io.Writer, profile termenv.Profile) *Theme {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)

	return &Theme{
		Profile:  profile,
		Heading:  r.NewStyle().Bold(true).Foreground(Purple),
		Thought:  r.NewStyle().Italic(true).Foreground(Purple),
		Index:    r.NewStyle().Foreground(TextMuted),
		Tag:      r.NewStyle().Bold(true),
		Path:     r.NewStyle().Bold(true).Foreground(Cyan),
		Command:  r.NewStyle().Foreground(Cyan),
		Question: r.NewStyle().Foreground(Amber),
		Gutter:   r.NewStyle().Foreground(TextMuted),
		Muted:    r.NewStyle().Foreground(TextMuted),
		Success:  r.NewStyle().Foreground(Emerald),
		Failure:  r.NewStyle().Bold(true).Foreground(Rose),
		Skipped:  r.NewStyle().Foreground(Amber),
		Warning:  r.NewStyle().Foreground(Amber),
	}
}

// DefaultTheme returns the theme for stdout.
func DefaultTheme() *Theme {
	return NewTheme(os.Stdout, ColorProfile())
}

// Colored reports whether the theme emits escape sequences.
func (t *Theme) Colored() bool {
	return t.Profile != termenv.Ascii
}
