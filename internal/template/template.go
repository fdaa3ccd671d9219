// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package template substitutes {{name}} placeholders in request templates.
//
// The same mechanism renders the request body ({{prompt}}, {{model}}) and the
// API key header ({{api_key}}), each with its own variable set. Placeholders
// that are not in the variable set are left exactly as written.
package template

import "strings"

// Well-known placeholder names.
const (
	VarPrompt = "prompt"
	VarModel  = "model"
	VarAPIKey = "api_key"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Render replaces every {{name}} whose name is a key of vars with its value.
//
// Rendering is a single left-to-right pass: substituted values are copied to
// the output and never scanned again, so a value containing "{{prompt}}" is
// emitted literally.
func Render(tmpl string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(tmpl, openDelim) {
		return tmpl
	}

	var b strings.Builder
	b.Grow(len(tmpl))

	rest := tmpl
	for {
		start := strings.Index(rest, openDelim)
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+len(openDelim):], closeDelim)
		if end < 0 {
			// Unterminated placeholder, keep the remainder verbatim
			b.WriteString(rest)
			break
		}
		name := rest[start+len(openDelim) : start+len(openDelim)+end]
		b.WriteString(rest[:start])

		if value, ok := vars[name]; ok {
			b.WriteString(value)
			rest = rest[start+len(openDelim)+end+len(closeDelim):]
			continue
		}

		// Unknown name: emit the opening delimiter and resume scanning right
		// after it so "{{{{prompt}}" still finds the inner placeholder.
		b.WriteString(openDelim)
		rest = rest[start+len(openDelim):]
	}

	return b.String()
}

// Placeholders returns the placeholder names in tmpl in order of first
// appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)

	rest := tmpl
	for {
		start := strings.Index(rest, openDelim)
		if start < 0 {
			return names
		}
		end := strings.Index(rest[start+len(openDelim):], closeDelim)
		if end < 0 {
			return names
		}
		name := rest[start+len(openDelim) : start+len(openDelim)+end]
		if name != "" && !strings.Contains(name, openDelim) && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		rest = rest[start+len(openDelim):]
	}
}

// Contains reports whether tmpl references the named placeholder.
func Contains(tmpl, name string) bool {
	return strings.Contains(tmpl, openDelim+name+closeDelim)
}
