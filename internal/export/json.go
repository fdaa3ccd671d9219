// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/cliff/internal/storage"
)

// document is the JSON and YAML export layout.
type document struct {
	Exported time.Time        `json:"exported" yaml:"exported"`
	Records  []storage.Record `json:"records" yaml:"records"`
}

func newDocument(opts *Options, records []storage.Record) document {
	return document{Exported: opts.now().UTC(), Records: chronological(records)}
}

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports records to JSON format.
// NOTE: JSON exports always carry every field of every record; IncludeMetadata
// only affects Markdown.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts records to an indented JSON document.
func (e *JSONExporter) Export(records []storage.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	data, err := json.MarshalIndent(newDocument(e.options, records), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports records to YAML format.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

// Export converts records to a YAML document.
func (e *YAMLExporter) Export(records []storage.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(e.options, records)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string {
	return "application/yaml"
}
