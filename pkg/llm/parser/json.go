package parser

import (
	"errors"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoJSON is returned when a reply contains no decodable JSON object.
var ErrNoJSON = errors.New("no JSON object found in response")

var codeFencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// Candidates returns every top-level JSON object found in text, in order of
// appearance. Fenced code blocks are searched before the surrounding prose,
// and thinking blocks are ignored.
func Candidates(text string) []string {
	text = StripThinking(text)

	var sources []string
	for _, match := range codeFencePattern.FindAllStringSubmatch(text, -1) {
		sources = append(sources, match[1])
	}
	sources = append(sources, codeFencePattern.ReplaceAllString(text, ""))

	var out []string
	seen := make(map[string]bool)
	for _, src := range sources {
		for _, candidate := range balancedObjects(src) {
			if seen[candidate] || !json.Valid([]byte(candidate)) {
				continue
			}
			seen[candidate] = true
			out = append(out, candidate)
		}
	}
	return out
}

// ExtractJSONPayload decodes the last JSON object of text into v.
func ExtractJSONPayload(text string, v interface{}) error {
	candidates := Candidates(text)
	if len(candidates) == 0 {
		return ErrNoJSON
	}
	return json.UnmarshalFromString(candidates[len(candidates)-1], v)
}

// balancedObjects returns the brace balanced {...} spans of s that decode as
// JSON, honoring string literals and escapes. A span that never closes or
// does not decode is skipped and the scan resumes at the next brace, so stray
// braces in prose do not hide a later object.
func balancedObjects(s string) []string {
	var out []string
	for start := 0; start < len(s); {
		open := strings.IndexByte(s[start:], '{')
		if open < 0 {
			break
		}
		open += start

		end := closingBrace(s, open)
		if end < 0 || !json.Valid([]byte(s[open:end+1])) {
			start = open + 1
			continue
		}
		out = append(out, strings.TrimSpace(s[open:end+1]))
		start = end + 1
	}
	return out
}

// closingBrace returns the index of the brace that closes the object opened
// at s[open], or -1 when the object is left open.
func closingBrace(s string, open int) int {
	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
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
