// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jeranaias/cliff/internal/storage"
	"github.com/jeranaias/cliff/internal/util"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports history records to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts records to Markdown, oldest first.
func (e *MarkdownExporter) Export(records []storage.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	ordered := chronological(records)

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("records: %d\n", len(ordered)))
		sb.WriteString(fmt.Sprintf("from: %s\n", ordered[0].CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("to: %s\n", ordered[len(ordered)-1].CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", e.options.now().Format(time.RFC3339)))
		sb.WriteString("generator: cliff\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString("# cliff history\n\n")

	for i, r := range ordered {
		sb.WriteString(fmt.Sprintf("## %s: %s\n\n", kindLabel(r.Kind), escapeMarkdown(util.FirstLine(strings.TrimSpace(r.Prompt)))))

		if e.options.IncludeMetadata {
			sb.WriteString(fmt.Sprintf("- **ID**: `%s`\n", r.ID))
			sb.WriteString(fmt.Sprintf("- **When**: %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05")))
			sb.WriteString(fmt.Sprintf("- **Model**: %s\n", r.Model))
			if r.Kind == storage.KindAct {
				sb.WriteString(fmt.Sprintf("- **Steps**: %d (%d failed)\n", r.Steps, r.Failed))
			}
			sb.WriteString(fmt.Sprintf("- **Result**: %s\n\n", resultLabel(r)))
		}

		if strings.Contains(r.Prompt, "\n") {
			sb.WriteString(fence(r.Prompt))
			sb.WriteString("\n\n")
		}

		if r.Kind == storage.KindAct {
			// Plan summaries are plain text columns
			sb.WriteString(fence(r.Response))
		} else {
			sb.WriteString(strings.TrimSpace(r.Response))
		}
		sb.WriteString("\n\n")

		if i < len(ordered)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// chronological returns records oldest first. Stores list newest first.
func chronological(records []storage.Record) []storage.Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b storage.Record) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

func kindLabel(k storage.Kind) string {
	switch k {
	case storage.KindAsk:
		return "Ask"
	case storage.KindSession:
		return "Session"
	case storage.KindAct:
		return "Act"
	default:
		return "Unknown"
	}
}

func resultLabel(r storage.Record) string {
	if r.Success {
		return "ok"
	}
	return "failed"
}

// fence wraps text in a code block whose fence is longer than any backtick
// run inside it.
func fence(s string) string {
	ticks := 3
	run := 0
	for _, r := range s {
		if r == '`' {
			run++
			if run >= ticks {
				ticks = run + 1
			}
			continue
		}
		run = 0
	}
	f := strings.Repeat("`", ticks)
	return f + "\n" + strings.TrimRight(s, "\n") + "\n" + f
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in headings
	r := strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return r.Replace(s)
}
