// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools performs the side effects of plan steps.
//
// # Key Types
//
//   - ShellRunner: runs one command line through the system shell
//   - FileWriter: creates or overwrites a file, creating parent directories
//
// # Shell Selection
//
// The shell is the configured one, else $SHELL, else /bin/sh, invoked as
// "<shell> -c <command>". On Windows commands run through "cmd /C". The
// child inherits the environment and working directory of cliff.
//
// # Process Control
//
// On Unix each command gets its own process group. When the context is
// cancelled or the timeout fires, the whole group is killed so background
// jobs started by the command do not outlive it.
package tools
