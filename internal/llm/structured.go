package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaValidator validates a parsed struct after JSON extraction.
type SchemaValidator[T any] func(T) error

// ExtractJSON pulls the first JSON object out of model output and decodes it
// into T. Markdown fences, surrounding prose and // or /* */ comments are
// tolerated. If validator is non-nil it runs on the decoded value.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	block := firstObject(stripFences(raw))
	if block == "" {
		return zero, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}

	var result T
	if err := json.Unmarshal([]byte(stripComments(block)), &result); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	if validator != nil {
		if err := validator(result); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %w", ErrInvalidOutput, err)
		}
	}
	return result, nil
}

// stripFences drops ``` fence lines and keeps everything else.
func stripFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// jsonScan tracks whether a byte-wise walk is inside a JSON string.
type jsonScan struct {
	inString bool
	escaped  bool
}

// step consumes c and reports whether it is structural, i.e. outside any
// string literal and not a quote.
func (s *jsonScan) step(c byte) bool {
	switch {
	case s.escaped:
		s.escaped = false
		return false
	case s.inString && c == '\\':
		s.escaped = true
		return false
	case c == '"':
		s.inString = !s.inString
		return false
	}
	return !s.inString
}

// firstObject returns the first balanced { ... } block in s.
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	var scan jsonScan
	depth := 0
	for i := start; i < len(s); i++ {
		if !scan.step(s[i]) {
			continue
		}
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// stripComments removes // and /* */ comments outside string values.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var scan jsonScan
	for i := 0; i < len(s); i++ {
		c := s[i]
		if scan.step(c) && c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i+1 < len(s) && s[i+1] != '\n' {
					i++
				}
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end == -1 {
					return b.String()
				}
				i += 2 + end + 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
