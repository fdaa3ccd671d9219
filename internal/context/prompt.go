// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import "strings"

// Source is the text gathered from one context source.
type Source struct {
	// ID is the source as the user gave it (path or URL).
	ID   string
	Text string
}

// PromptContext is the ordered list of gathered sources.
type PromptContext struct {
	Sources []Source
}

// IsEmpty reports whether no source was gathered.
func (pc PromptContext) IsEmpty() bool {
	return len(pc.Sources) == 0
}

// Size returns the total bytes of gathered text.
func (pc PromptContext) Size() int {
	n := 0
	for _, s := range pc.Sources {
		n += len(s.Text)
	}
	return n
}

// Compose builds the prompt sent to the model for instruction. With no
// sources the Context section is empty.
func (pc PromptContext) Compose(instruction string) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(instruction)
	b.WriteString("\n\nContext: ")
	for i, s := range pc.Sources {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Context from ")
		b.WriteString(s.ID)
		b.WriteString(":\n")
		b.WriteString(s.Text)
		b.WriteString("\n")
	}
	return b.String()
}
