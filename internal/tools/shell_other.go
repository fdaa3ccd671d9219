// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !unix

package tools

import "os/exec"

// configureProcess keeps the default cancellation, which kills the shell
// process only.
func configureProcess(cmd *exec.Cmd) {}
