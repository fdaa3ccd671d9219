// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"fmt"
	"strings"

	"github.com/jeranaias/cliff/internal/util"
)

// MaxPlanSize is the largest LLM answer Parse accepts.
const MaxPlanSize = 1 << 20

// =============================================================================
// PARSE ERRORS
// =============================================================================

// ParseErrorKind classifies a parse failure.
type ParseErrorKind int

const (
	// UnknownStepType - a header tag that is not a known step
	UnknownStepType ParseErrorKind = iota + 1

	// MissingField - a header without its required field
	MissingField

	// UnexpectedText - a line outside any block that is not a header
	UnexpectedText

	// UnterminatedBlock - CREATE_FILE content without END
	UnterminatedBlock

	// TooLarge - the answer exceeds MaxPlanSize
	TooLarge
)

// String returns the string representation of a parse error kind.
func (k ParseErrorKind) String() string {
	switch k {
	case UnknownStepType:
		return "unknown step type"
	case MissingField:
		return "missing field"
	case UnexpectedText:
		return "unexpected text"
	case UnterminatedBlock:
		return "unterminated block"
	case TooLarge:
		return "plan too large"
	default:
		return "parse error"
	}
}

// ParseError reports why an LLM answer is not a valid plan.
type ParseError struct {
	Kind ParseErrorKind

	// StepIndex is the 0-based index of the step being parsed, or -1.
	StepIndex int

	// Tag is the header tag involved, if any.
	Tag string

	// Field is the missing field for MissingField.
	Field string

	// Line is the offending line and LineNo its 1-based number.
	Line   string
	LineNo int
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case UnknownStepType:
		return fmt.Sprintf("line %d: unknown step type %q", e.LineNo, e.Tag)
	case MissingField:
		return fmt.Sprintf("line %d: step %d (%s) is missing field %q", e.LineNo, e.StepIndex+1, e.Tag, e.Field)
	case UnexpectedText:
		return fmt.Sprintf("line %d: unexpected text %q", e.LineNo, util.TruncateWidth(e.Line, 60))
	case UnterminatedBlock:
		return fmt.Sprintf("line %d: step %d (%s) has no %s line", e.LineNo, e.StepIndex+1, e.Tag, TagEnd)
	case TooLarge:
		return fmt.Sprintf("plan exceeds %d bytes", MaxPlanSize)
	default:
		return e.Kind.String()
	}
}

// =============================================================================
// PARSER
// =============================================================================

// Parse reads a plan from the LLM's answer.
//
// A single Markdown code fence wrapping the whole answer is removed, CRLF
// line endings are normalised and blank lines between steps are ignored. A
// plan with no steps is valid. Parse is total: it returns a plan or a
// *ParseError for any input.
func Parse(output string) (*Plan, error) {
	if len(output) > MaxPlanSize {
		return nil, &ParseError{Kind: TooLarge, StepIndex: -1}
	}

	text := strings.ReplaceAll(output, "\r\n", "\n")
	lines, offset := stripFence(strings.Split(text, "\n"))

	p := &Plan{Steps: []Step{}}
	var thoughts []string

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		lineNo := i + 1 + offset
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, TagThought) {
			if t := strings.TrimSpace(strings.TrimPrefix(trimmed, TagThought)); t != "" {
				thoughts = append(thoughts, t)
			}
			continue
		}

		tag, rest := splitHeader(trimmed)
		perr := func(kind ParseErrorKind) *ParseError {
			return &ParseError{Kind: kind, StepIndex: len(p.Steps), Tag: tag, Line: line, LineNo: lineNo}
		}
		missing := func(field string) *ParseError {
			e := perr(MissingField)
			e.Field = field
			return e
		}

		switch tag {
		case TagCreateFile:
			path := fieldValue(rest, "path")
			if path == "" {
				return nil, missing("path")
			}
			end := -1
			for j := i + 1; j < len(lines); j++ {
				if isBlockEnd(lines[j]) {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, perr(UnterminatedBlock)
			}
			p.Steps = append(p.Steps, Step{Kind: KindCreateFile, Path: path, Content: blockContent(lines[i+1 : end])})
			i = end

		case TagRunCommand, TagRun:
			command := fieldValue(rest, "command")
			if command == "" {
				return nil, missing("command")
			}
			p.Steps = append(p.Steps, Step{Kind: KindRunCommand, Command: command})

		case TagAskUser:
			question := fieldValue(rest, "question")
			if question == "" {
				return nil, missing("question")
			}
			p.Steps = append(p.Steps, Step{Kind: KindAskUser, Question: question})

		default:
			if looksLikeHeader(tag, rest) {
				return nil, perr(UnknownStepType)
			}
			e := perr(UnexpectedText)
			e.Tag = ""
			return nil, e
		}
	}

	p.Thought = strings.Join(thoughts, "\n")
	return p, nil
}

// stripFence removes one code fence wrapping the answer. It returns the
// remaining lines and how many leading lines were dropped.
func stripFence(lines []string) ([]string, int) {
	first := 0
	for first < len(lines) && strings.TrimSpace(lines[first]) == "" {
		first++
	}
	if first == len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[first]), "```") {
		return lines, 0
	}

	last := len(lines) - 1
	for last > first && strings.TrimSpace(lines[last]) == "" {
		last--
	}
	if last > first && strings.TrimSpace(lines[last]) == "```" {
		return lines[first+1 : last], first + 1
	}
	// Opening fence without a closing one
	return lines[first+1:], first + 1
}

// splitHeader splits a header line into its tag and the remainder. A
// trailing ':' on the tag is tolerated.
func splitHeader(line string) (string, string) {
	tag, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		tag, rest = line[:i], line[i+1:]
	}
	return strings.TrimSuffix(tag, ":"), rest
}

// fieldValue returns the trimmed text after "name=" where name starts a
// whitespace-separated token. The value runs to the end of the line.
func fieldValue(rest, name string) string {
	key := name + "="
	for i := 0; i+len(key) <= len(rest); i++ {
		if rest[i:i+len(key)] != key {
			continue
		}
		if i > 0 && rest[i-1] != ' ' && rest[i-1] != '\t' {
			continue
		}
		return strings.TrimSpace(rest[i+len(key):])
	}
	return ""
}

// blockContent joins CREATE_FILE body lines. Every line keeps its
// terminating newline, so non-empty content always ends with "\n".
func blockContent(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// looksLikeHeader reports whether a line is a step header with an unknown
// tag rather than prose. The tag must be an upper-case identifier, and
// either contain '_', stand alone, or be followed by a name= field.
func looksLikeHeader(tag, rest string) bool {
	if len(tag) < 2 || tag == TagEnd {
		return false
	}
	for i, r := range tag {
		switch {
		case r >= 'A' && r <= 'Z':
		case i > 0 && (r == '_' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	if strings.Contains(tag, "_") || strings.TrimSpace(rest) == "" {
		return true
	}
	for _, tok := range strings.Fields(rest) {
		if name, _, ok := strings.Cut(tok, "="); ok && name != "" && isLowerIdent(name) {
			return true
		}
	}
	return false
}

func isLowerIdent(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z') && r != '_' {
			return false
		}
	}
	return true
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode writes p back in the plan notation. Parse(Encode(p)) reproduces
// the steps as long as no content line is exactly END.
func Encode(p *Plan) string {
	var b strings.Builder
	if p.Thought != "" {
		for _, t := range strings.Split(p.Thought, "\n") {
			b.WriteString(TagThought + " " + t + "\n")
		}
	}
	for _, s := range p.Steps {
		switch s.Kind {
		case KindCreateFile:
			b.WriteString(TagCreateFile + " path=" + s.Path + "\n")
			b.WriteString(s.Content)
			if s.Content != "" && !strings.HasSuffix(s.Content, "\n") {
				b.WriteString("\n")
			}
			b.WriteString(TagEnd + "\n")
		case KindRunCommand:
			b.WriteString(TagRunCommand + " command=" + s.Command + "\n")
		case KindAskUser:
			b.WriteString(TagAskUser + " question=" + s.Question + "\n")
		}
	}
	return b.String()
}

// isBlockEnd reports whether line closes a CREATE_FILE block. Only trailing
// whitespace is ignored, so an indented END stays part of the content.
func isBlockEnd(line string) bool {
	return strings.TrimRight(line, " \t\r") == TagEnd
}
