// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"fmt"

	"github.com/jeranaias/cliff/internal/config"
	"github.com/jeranaias/cliff/internal/util"
)

// ErrorKind classifies a ModelError.
type ErrorKind int

const (
	// KindTransport covers connection, TLS, timeout and read failures.
	KindTransport ErrorKind = iota
	// KindHTTP is a non-2xx status.
	KindHTTP
	// KindInvalidJSON is a 2xx response whose body is not JSON.
	KindInvalidJSON
	// KindExtraction means the response path did not lead to a string.
	KindExtraction
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTP:
		return "http"
	case KindInvalidJSON:
		return "invalid json"
	case KindExtraction:
		return "extraction"
	default:
		return "unknown"
	}
}

// ModelError reports a failed Complete call. Its message never contains the
// API key.
type ModelError struct {
	Kind  ErrorKind
	Model string
	// Status is set for KindHTTP.
	Status int
	// BodySnippet is the start of the response body, redacted.
	BodySnippet string
	// Err is the underlying cause, if any. For KindExtraction it is an
	// *extract.ExtractionError.
	Err error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	prefix := fmt.Sprintf("model %q", e.Model)
	switch e.Kind {
	case KindHTTP:
		if e.BodySnippet != "" {
			return fmt.Sprintf("%s: HTTP %d: %s", prefix, e.Status, e.BodySnippet)
		}
		return fmt.Sprintf("%s: HTTP %d", prefix, e.Status)
	case KindInvalidJSON:
		if e.BodySnippet != "" {
			return fmt.Sprintf("%s: response is not valid JSON: %s", prefix, e.BodySnippet)
		}
		return prefix + ": response is not valid JSON"
	case KindExtraction:
		return fmt.Sprintf("%s: unexpected response shape: %v", prefix, e.Err)
	default:
		return fmt.Sprintf("%s: request failed: %v", prefix, e.Err)
	}
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ModelError) Unwrap() error {
	return e.Err
}

// newModelError builds an error for m, scrubbing the key from the cause.
func newModelError(kind ErrorKind, m config.ResolvedModel, cause error) *ModelError {
	return &ModelError{
		Kind:  kind,
		Model: m.Name,
		Err:   scrub(cause, m.APIKey),
	}
}

// scrubbedError hides a secret in the message of the error it wraps, for
// example a key passed as a URL query parameter.
type scrubbedError struct {
	msg   string
	cause error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.cause }

func scrub(err error, secret string) error {
	if err == nil || secret == "" {
		return err
	}
	return &scrubbedError{msg: util.Redact(err.Error(), secret), cause: err}
}
