// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff compares the content a plan step would write with what is
// already on disk, so the plan review can flag overwrites.
package diff

import (
	"fmt"
	"strings"
)

// maxCells bounds the LCS table. Larger changed regions are reported as a
// full replacement.
const maxCells = 1 << 22

// =============================================================================
// LINE OPERATIONS
// =============================================================================

// Op is what happened to a line.
type Op int

const (
	// OpEqual - line present in both versions
	OpEqual Op = iota
	// OpInsert - line only in the new version
	OpInsert
	// OpDelete - line only in the old version
	OpDelete
)

// String returns the string representation of an operation.
func (o Op) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Line is one line of an edit script.
type Line struct {
	Op   Op
	Text string
}

// =============================================================================
// EDIT SCRIPT
// =============================================================================

// Lines returns the edit script turning old into new. Common leading and
// trailing lines are matched directly; the changed middle is aligned with a
// longest common subsequence when it is small enough.
func Lines(old, new string) []Line {
	a, b := splitLines(old), splitLines(new)

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	script := make([]Line, 0, len(a)+len(b))
	for _, l := range a[:prefix] {
		script = append(script, Line{Op: OpEqual, Text: l})
	}
	script = append(script, middle(a[prefix:len(a)-suffix], b[prefix:len(b)-suffix])...)
	for _, l := range a[len(a)-suffix:] {
		script = append(script, Line{Op: OpEqual, Text: l})
	}
	return script
}

func middle(a, b []string) []Line {
	if len(a) == 0 || len(b) == 0 || (len(a)+1)*(len(b)+1) > maxCells {
		return replace(a, b)
	}

	// dp[i][j] is the LCS length of a[i:] and b[j:]
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else {
				dp[i][j] = max(dp[i+1][j], dp[i][j+1])
			}
		}
	}

	var script []Line
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			script = append(script, Line{Op: OpEqual, Text: a[i]})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			script = append(script, Line{Op: OpDelete, Text: a[i]})
			i++
		default:
			script = append(script, Line{Op: OpInsert, Text: b[j]})
			j++
		}
	}
	return append(script, replace(a[i:], b[j:])...)
}

func replace(a, b []string) []Line {
	script := make([]Line, 0, len(a)+len(b))
	for _, l := range a {
		script = append(script, Line{Op: OpDelete, Text: l})
	}
	for _, l := range b {
		script = append(script, Line{Op: OpInsert, Text: l})
	}
	return script
}

// splitLines splits content into lines. A final newline does not start an
// extra empty line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// =============================================================================
// STATS
// =============================================================================

// Stats counts the changed lines between two versions of a file.
type Stats struct {
	Added   int
	Removed int
	// Identical is set when the bytes are the same.
	Identical bool
}

// Compute compares old and new content.
func Compute(old, new string) Stats {
	if old == new {
		return Stats{Identical: true}
	}
	var s Stats
	for _, l := range Lines(old, new) {
		switch l.Op {
		case OpInsert:
			s.Added++
		case OpDelete:
			s.Removed++
		}
	}
	return s
}

// String returns a short description such as "+3 -1".
func (s Stats) String() string {
	switch {
	case s.Identical:
		return "identical"
	case s.Added == 0 && s.Removed == 0:
		return "final newline only"
	default:
		return fmt.Sprintf("+%d -%d", s.Added, s.Removed)
	}
}
