// Package extract pulls the questionnaire JSON object out of free-form
// model output.
//
// Candidates are tried in order: fenced code blocks, balanced top-level
// {...} spans, then the widest first-'{' to last-'}' span. The first
// candidate that is well-formed JSON wins. Extract only finds the object;
// judging its content is model.Validate's job.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel reasons carried by *Error.
var (
	ErrEmpty     = errors.New("empty response")
	ErrNoObject  = errors.New("no JSON object found")
	ErrMalformed = errors.New("JSON object is malformed")
)

// Error reports that no JSON object could be extracted from a response.
type Error struct {
	Reason  error
	Snippet string
	// Cause is the decode error of the last candidate tried, if any.
	Cause error
}

func (e *Error) Error() string {
	msg := "extract: " + e.Reason.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Snippet != "" {
		msg += fmt.Sprintf(" (response starts %q)", e.Snippet)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Reason }

const snippetLen = 80

// Extract returns the first well-formed JSON object found in text.
func Extract(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &Error{Reason: ErrEmpty}
	}

	var lastErr error
	tried := false
	for _, c := range candidates(trimmed) {
		tried = true
		var v map[string]any
		if err := json.Unmarshal([]byte(c), &v); err != nil {
			lastErr = err
			continue
		}
		return json.RawMessage(c), nil
	}

	e := &Error{Reason: ErrNoObject, Snippet: snippet(trimmed)}
	if tried {
		e.Reason, e.Cause = ErrMalformed, lastErr
	}
	return nil, e
}

func candidates(s string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(c string) {
		c = strings.TrimSpace(c)
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, block := range fencedBlocks(s) {
		if obj, ok := firstObject(block); ok {
			add(obj)
		}
	}
	for _, obj := range balancedObjects(s) {
		add(obj)
	}
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		add(s[start : end+1])
	}
	return out
}

// fencedBlocks returns the bodies of ``` fences. The info string on the
// opening line (e.g. "json") is dropped.
func fencedBlocks(s string) []string {
	var blocks []string
	for {
		open := strings.Index(s, "```")
		if open < 0 {
			return blocks
		}
		rest := s[open+3:]
		end := strings.Index(rest, "```")
		if end < 0 {
			return blocks
		}
		body := rest[:end]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.Contains(body[:nl], "{") {
			body = body[nl+1:]
		}
		blocks = append(blocks, body)
		s = rest[end+3:]
	}
}

func firstObject(s string) (string, bool) {
	objs := balancedObjects(s)
	if len(objs) == 0 {
		return "", false
	}
	return objs[0], true
}

// balancedObjects scans for top-level {...} spans, skipping braces inside
// string literals. Scanning bytes is safe: the delimiters are ASCII and
// never occur inside a UTF-8 multi-byte sequence.
func balancedObjects(s string) []string {
	var (
		objs     []string
		depth    int
		start    = -1
		inString bool
		escape   bool
	)
	for i := 0; i < len(s); i++ {
		b := s[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				objs = append(objs, s[start:i+1])
				start = -1
			}
		}
	}
	return objs
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen]) + "…"
}
