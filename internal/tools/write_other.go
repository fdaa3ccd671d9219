// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !unix

package tools

import "os"

// hardLinked is not detected; the file is replaced atomically.
func hardLinked(info os.FileInfo) bool { return false }
