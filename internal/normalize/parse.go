// Package normalize recovers article records from free-form model output.
//
// Model responses are treated as hostile to parse: they may wrap the payload
// in prose or a fenced code block, or emit several objects back to back.
// Nothing here returns an error; callers get a Result and decide what to show.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"
)

// maxObjects bounds sequential object extraction on adversarial input.
const maxObjects = 50

var (
	fenceRe   = regexp.MustCompile("(?s)^```[A-Za-z0-9_+-]*[ \t]*\r?\n(.*?)\r?\n?```$")
	langTagRe = regexp.MustCompile(`^(?i:json5?|javascript|js)\b[ \t]*`)
)

// Clean strips one enclosing fenced code block, or failing that one leading
// bare language tag, and trims surrounding whitespace.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(langTagRe.ReplaceAllString(s, ""))
}

// Parse runs the fallback chain over raw and returns the first structured
// value it recovers: a []any or a map[string]any. ok is false when every
// step fails.
func Parse(raw string) (value any, ok bool) {
	s := Clean(raw)
	if s == "" {
		return nil, false
	}

	if v, ok := decode(s); ok {
		return v, true
	}
	if v, ok := decodeSpan(s, '[', ']'); ok {
		return v, true
	}
	if v, ok := decodeSpan(s, '{', '}'); ok {
		return v, true
	}
	if objs := extractObjects(s); len(objs) > 0 {
		return objs, true
	}
	return nil, false
}

// decode accepts only arrays and objects.
func decode(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case []any, map[string]any:
		return v, true
	}
	return nil, false
}

// decodeSpan decodes the text between the first open and the last close
// delimiter, inclusive.
func decodeSpan(s string, open, close byte) (any, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return nil, false
	}
	return decode(s[start : end+1])
}

// extractObjects scans s for consecutive brace-balanced spans and keeps the
// ones that decode as objects, in source order.
func extractObjects(s string) []any {
	var out []any
	pos := 0
	for attempts := 0; attempts < maxObjects; attempts++ {
		i := strings.IndexByte(s[pos:], '{')
		if i < 0 {
			break
		}
		start := pos + i
		end := matchBrace(s, start)
		if end < 0 {
			break
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(s[start:end+1]), &obj); err == nil {
			out = append(out, obj)
		}
		pos = end + 1
	}
	return out
}

// matchBrace returns the index of the brace closing the one at start, or -1
// when the input ends first. Braces inside string literals are ignored.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
