// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// STEP KIND
// =============================================================================

// Kind identifies which action a Step performs.
type Kind int

const (
	// KindCreateFile writes Content to Path.
	KindCreateFile Kind = iota + 1

	// KindRunCommand runs Command through the system shell.
	KindRunCommand

	// KindAskUser asks the user Question.
	KindAskUser
)

// Notation tags.
const (
	TagCreateFile = "CREATE_FILE"
	TagRunCommand = "RUN_COMMAND"
	TagRun        = "RUN"
	TagAskUser    = "ASK_USER"
	TagThought    = "THOUGHT:"
	TagEnd        = "END"
)

// String returns the lower-case name used in summaries.
func (k Kind) String() string {
	switch k {
	case KindCreateFile:
		return "create_file"
	case KindRunCommand:
		return "run_command"
	case KindAskUser:
		return "ask_user"
	default:
		return "unknown"
	}
}

// Tag returns the header tag used in the plan notation.
func (k Kind) Tag() string {
	switch k {
	case KindCreateFile:
		return TagCreateFile
	case KindRunCommand:
		return TagRunCommand
	case KindAskUser:
		return TagAskUser
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < KindCreateFile || k > KindAskUser {
		return nil, fmt.Errorf("invalid step kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "create_file":
		*k = KindCreateFile
	case "run_command":
		*k = KindRunCommand
	case "ask_user":
		*k = KindAskUser
	default:
		return fmt.Errorf("unknown step kind %q", string(text))
	}
	return nil
}

// =============================================================================
// STEP
// =============================================================================

// Step is a single action of a plan. Only the fields of its Kind are set.
type Step struct {
	Kind Kind `json:"type" yaml:"type"`

	// CreateFile
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// RunCommand
	Command string `json:"command,omitempty" yaml:"command,omitempty"`

	// AskUser
	Question string `json:"question,omitempty" yaml:"question,omitempty"`
}

var (
	// ErrEmptyPath is returned for a CreateFile step without a path.
	ErrEmptyPath = errors.New("create_file: path is required")

	// ErrEmptyCommand is returned for a RunCommand step without a command.
	ErrEmptyCommand = errors.New("run_command: command is required")

	// ErrEmptyQuestion is returned for an AskUser step without a question.
	ErrEmptyQuestion = errors.New("ask_user: question is required")
)

// CreateFile returns a step that writes content to path. Content may be empty.
func CreateFile(path, content string) (Step, error) {
	s := Step{Kind: KindCreateFile, Path: path, Content: content}
	return s, s.Validate()
}

// RunCommand returns a step that runs command through the system shell.
func RunCommand(command string) (Step, error) {
	s := Step{Kind: KindRunCommand, Command: command}
	return s, s.Validate()
}

// AskUser returns a step that asks the user question.
func AskUser(question string) (Step, error) {
	s := Step{Kind: KindAskUser, Question: question}
	return s, s.Validate()
}

// Validate checks the invariants of the step's kind.
func (s Step) Validate() error {
	switch s.Kind {
	case KindCreateFile:
		if strings.TrimSpace(s.Path) == "" {
			return ErrEmptyPath
		}
	case KindRunCommand:
		if strings.TrimSpace(s.Command) == "" {
			return ErrEmptyCommand
		}
	case KindAskUser:
		if strings.TrimSpace(s.Question) == "" {
			return ErrEmptyQuestion
		}
	default:
		return fmt.Errorf("invalid step kind %d", int(s.Kind))
	}
	return nil
}

// Target returns the path, command or question the step acts on.
func (s Step) Target() string {
	switch s.Kind {
	case KindCreateFile:
		return s.Path
	case KindRunCommand:
		return s.Command
	case KindAskUser:
		return s.Question
	default:
		return ""
	}
}

// String returns a one-line description such as "RUN_COMMAND ls -la".
func (s Step) String() string {
	return s.Kind.Tag() + " " + s.Target()
}
