// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared across cliff.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe write (temp file, fsync, rename)
//
// String Utilities:
//   - TruncateWidth: display-width aware truncation with an ellipsis
//   - FirstLine: first line of a multi-line string, for listings
//
// Secrets:
//   - Redact: replaces every occurrence of a secret with a marker
//   - Fingerprint: short SHA-256 prefix safe to log in place of a key
package util
