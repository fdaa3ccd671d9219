// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// RedactedMarker replaces secrets in text that leaves the process.
const RedactedMarker = "[REDACTED]"

// Redact replaces every occurrence of each non-empty secret in s.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, RedactedMarker)
	}
	return s
}

// Fingerprint identifies a secret in logs without revealing it: the first
// 8 hex characters of its SHA-256. An empty secret yields "none".
func Fingerprint(secret string) string {
	if secret == "" {
		return "none"
	}
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:8]
}
