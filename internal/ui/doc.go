// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui renders cliff's terminal output.
//
// Colour is used only when stdout is a terminal and NO_COLOR is unset; piped
// output is always plain text so it can be processed by other tools.
//
// # Key Types
//
//   - Theme: lipgloss styles bound to a colour profile
//   - Spinner: bubbletea "thinking" indicator drawn on stderr
//
// Markdown answers are rendered with glamour and file content in plan
// reviews is highlighted with chroma.
package ui
