// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import (
	"fmt"
	"strings"
)

// =============================================================================
// CONVERSATION
// =============================================================================

const (
	// DefaultMaxTurns is the number of recent turns kept in full.
	DefaultMaxTurns = 20

	// DefaultMaxHistoryBytes caps the replayed history.
	DefaultMaxHistoryBytes = 64 * 1024
)

// Turn is one question and the model's answer.
type Turn struct {
	Question string
	Answer   string
}

// Conversation keeps the turns of an interactive session. Only the most
// recent turns are replayed; older ones are dropped once either limit is
// exceeded.
type Conversation struct {
	// MaxTurns is the number of recent turns to keep (default: 20).
	MaxTurns int

	// MaxBytes caps the formatted history (default: 64KB).
	MaxBytes int

	turns   []Turn
	dropped int
}

// Add records a completed turn.
func (c *Conversation) Add(question, answer string) {
	c.turns = append(c.turns, Turn{Question: question, Answer: answer})
	c.truncate()
}

// Turns returns the kept turns, oldest first.
func (c *Conversation) Turns() []Turn {
	return c.turns
}

// Dropped returns how many turns were discarded.
func (c *Conversation) Dropped() int {
	return c.dropped
}

// Prompt returns question followed by the conversation so far.
func (c *Conversation) Prompt(question string) string {
	if len(c.turns) == 0 {
		return question
	}
	return question + "\nConversation History:\n" + c.history()
}

func (c *Conversation) history() string {
	var b strings.Builder
	if c.dropped > 0 {
		fmt.Fprintf(&b, "(%d earlier turns omitted)\n", c.dropped)
	}
	for i, t := range c.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatTurn(t))
	}
	return b.String()
}

func formatTurn(t Turn) string {
	return "User: " + t.Question + "\nLLM: " + t.Answer
}

// truncate drops the oldest turns until both limits hold. The newest turn
// is always kept.
func (c *Conversation) truncate() {
	maxTurns := c.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	maxBytes := c.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxHistoryBytes
	}

	size := 0
	for _, t := range c.turns {
		size += len(formatTurn(t)) + 1
	}

	cut := 0
	for len(c.turns)-cut > 1 && (len(c.turns)-cut > maxTurns || size > maxBytes) {
		size -= len(formatTurn(c.turns[cut])) + 1
		cut++
	}
	if cut > 0 {
		c.turns = append([]Turn(nil), c.turns[cut:]...)
		c.dropped += cut
	}
}
