// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownRenderer *glamour.TermRenderer
	markdownWidth    int
	markdownMu       sync.Mutex
)

// RenderMarkdown renders an answer for the terminal. Without colors, or if
// rendering fails, the answer is returned unchanged.
func RenderMarkdown(content string) string {
	if !ColorsEnabled() {
		return content
	}

	r := renderer(TerminalWidth() - 4)
	if r == nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

// renderer returns a glamour renderer for width, rebuilding it when the
// width changes.
func renderer(width int) *glamour.TermRenderer {
	markdownMu.Lock()
	defer markdownMu.Unlock()

	if markdownRenderer != nil && markdownWidth == width {
		return markdownRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	markdownRenderer, markdownWidth = r, width
	return r
}
