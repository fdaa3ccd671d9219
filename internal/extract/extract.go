// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract pulls the answer text out of an arbitrary JSON response.
//
// The selector is entirely data driven (it comes from the model
// configuration), so the same code serves Gemini-style
// "$.candidates[0].content.parts[0].text" and chat-completions-style
// "$.choices[0].message.content" responses.
package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Reason describes why a path could not be resolved.
type Reason string

const (
	ReasonFieldNotFound    Reason = "field not found"
	ReasonIndexOutOfBounds Reason = "index out of bounds"
	ReasonNotAnArray       Reason = "not an array"
	ReasonNotAnObject      Reason = "not an object"
	ReasonLeafNotString    Reason = "leaf not a string"
	ReasonInvalidPath      Reason = "invalid path"
	ReasonInvalidJSON      Reason = "invalid json"
)

// ExtractionError is returned when a path cannot be resolved against a
// document.
type ExtractionError struct {
	Path   string
	Reason Reason
	// At is the prefix of Path that was resolved when the failure occurred.
	At string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.At != "" {
		return fmt.Sprintf("extract %q: %s at %s", e.Path, e.Reason, e.At)
	}
	return fmt.Sprintf("extract %q: %s", e.Path, e.Reason)
}

// =============================================================================
// PATH SEGMENTS
// =============================================================================

// Segment is one step of a selector: either an object field or an array index.
type Segment struct {
	Field   string
	Index   int
	IsIndex bool
}

// String renders the segment in selector syntax.
func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	if isPlainField(s.Field) {
		return "." + s.Field
	}
	return "[" + strconv.Quote(s.Field) + "]"
}

// ParsePath parses a selector such as "$.candidates[0].content.parts[0].text".
//
// Supported syntax: optional leading "$", ".field", "[n]", "['field']" and
// "[\"field\"]". A leading bare field ("answer") is read as "$.answer".
func ParsePath(path string) ([]Segment, error) {
	invalid := func() error {
		return &ExtractionError{Path: path, Reason: ReasonInvalidPath}
	}

	p := strings.TrimSpace(path)
	p = strings.TrimPrefix(p, "$")

	var segs []Segment
	first := true
	for len(p) > 0 {
		switch {
		case p[0] == '.':
			name, rest := readField(p[1:])
			if name == "" {
				return nil, invalid()
			}
			segs = append(segs, Segment{Field: name})
			p = rest

		case p[0] == '[' && len(p) > 1 && (p[1] == '\'' || p[1] == '"'):
			// Quoted keys may contain '.' or ']', so scan for the closing
			// quote immediately followed by ']'.
			closing := strings.Index(p[2:], string(p[1])+"]")
			if closing < 0 {
				return nil, invalid()
			}
			segs = append(segs, Segment{Field: p[2 : 2+closing]})
			p = p[2+closing+2:]

		case p[0] == '[':
			end := strings.IndexByte(p, ']')
			if end < 0 {
				return nil, invalid()
			}
			n, err := strconv.Atoi(strings.TrimSpace(p[1:end]))
			if err != nil || n < 0 {
				return nil, invalid()
			}
			segs = append(segs, Segment{Index: n, IsIndex: true})
			p = p[end+1:]

		case first:
			name, rest := readField(p)
			if name == "" {
				return nil, invalid()
			}
			segs = append(segs, Segment{Field: name})
			p = rest

		default:
			return nil, invalid()
		}
		first = false
	}

	return segs, nil
}

// readField reads a dotted field name up to the next '.' or '['.
func readField(s string) (string, string) {
	i := strings.IndexAny(s, ".[")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func isPlainField(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".[]'\" ")
}

// =============================================================================
// EXTRACTION
// =============================================================================

// Extract resolves path against the JSON document and returns the string leaf.
func Extract(doc []byte, path string) (string, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(doc) {
		return "", &ExtractionError{Path: path, Reason: ReasonInvalidJSON}
	}
	return Walk(gjson.ParseBytes(doc), path, segs)
}

// Walk resolves pre-parsed segments against an already parsed document.
func Walk(root gjson.Result, path string, segs []Segment) (string, error) {
	cur := root
	at := "$"

	for _, seg := range segs {
		fail := func(r Reason) error {
			return &ExtractionError{Path: path, Reason: r, At: at}
		}

		if seg.IsIndex {
			if !cur.IsArray() {
				return "", fail(ReasonNotAnArray)
			}
			items := cur.Array()
			if seg.Index >= len(items) {
				return "", fail(ReasonIndexOutOfBounds)
			}
			cur = items[seg.Index]
		} else {
			if !cur.IsObject() {
				return "", fail(ReasonNotAnObject)
			}
			next, ok := field(cur, seg.Field)
			if !ok {
				return "", fail(ReasonFieldNotFound)
			}
			cur = next
		}
		at += seg.String()
	}

	if cur.Type != gjson.String {
		return "", &ExtractionError{Path: path, Reason: ReasonLeafNotString, At: at}
	}
	return cur.Str, nil
}

// field looks up an object member by exact key. gjson's own path syntax is
// deliberately avoided here: keys such as "a.b" or "@this" must match
// literally.
func field(obj gjson.Result, name string) (gjson.Result, bool) {
	var found gjson.Result
	ok := false
	obj.ForEach(func(key, value gjson.Result) bool {
		if key.Str == name {
			found = value
			ok = true
			return false
		}
		return true
	})
	return found, ok
}
