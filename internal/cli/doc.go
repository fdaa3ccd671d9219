// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the cliff command tree.
//
// Commands:
//
//	cliff ask <prompt>            One question, one answer
//	cliff session                 Interactive conversation (exit, quit or Ctrl+D ends it)
//	cliff act <instruction>       Plan, review, confirm and execute
//	cliff config <subcommand>     Manage model definitions
//	cliff history                 Show past ask/act interactions
//	cliff history export          Write history as Markdown, JSON or YAML
//
// Global flags:
//
//	-m, --model NAME       Use a model for this invocation only
//	-c, --context a,b      Files or URLs to include as context
//	    --config PATH      Use another configuration file
//	-v, --verbose          Debug logging on stderr
//
// Answers and execution summaries go to stdout; prompts, progress and
// diagnostics go to stderr.
package cli
