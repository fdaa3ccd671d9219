// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes history records out as Markdown, JSON or YAML.
//
// # Supported Formats
//
//   - Markdown: human-readable, one section per record with the prompt and
//     the answer or plan summary
//   - JSON: machine-readable, the records as stored
//   - YAML: the same document as JSON
//
// # Usage
//
//	exporter, err := export.ForFormat("markdown", nil)
//	data, err := exporter.Export(records)
//
// Write to a file named after the first prompt:
//
//	path, err := export.ExportToFile(records, exporter, &export.Options{OutputDir: "."})
package export
