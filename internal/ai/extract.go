package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// errNoJSON is returned when no usable JSON object can be found in a
// collaborator response.
var errNoJSON = errors.New("no JSON object found in response")

// ExtractJSONObject pulls the first JSON object out of model output that may
// wrap it in prose. Extraction is defensive and ordered:
//
//  1. a fenced code block (```json or bare ```) whose body is an object,
//  2. the first balanced top-level {...} anywhere in the text.
//
// The returned bytes are guaranteed to be valid JSON.
func ExtractJSONObject(text string) ([]byte, error) {
	if body, ok := fencedBlock(text); ok {
		if obj, ok := balancedObject(body); ok {
			return obj, nil
		}
	}
	if obj, ok := balancedObject(text); ok {
		return obj, nil
	}
	return nil, errNoJSON
}

// fencedBlock returns the body of the first ``` fenced block, if any.
// A "json" language tag after the opening fence is tolerated.
func fencedBlock(text string) (string, bool) {
	open := strings.Index(text, "```")
	if open == -1 {
		return "", false
	}
	rest := text[open+3:]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		// Drop the language tag line ("json", "JSON", or empty).
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || strings.EqualFold(tag, "json") {
			rest = rest[nl+1:]
		}
	}
	close := strings.Index(rest, "```")
	if close == -1 {
		return "", false
	}
	return rest[:close], true
}

// balancedObject scans for the first '{' and walks to its matching '}',
// tracking string literals and escapes so braces inside values don't
// terminate the scan early. The candidate is validated before returning.
func balancedObject(text string) ([]byte, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// characters inside strings are inert
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				candidate := []byte(text[start : i+1])
				if json.Valid(candidate) {
					return candidate, true
				}
				return nil, false
			}
		}
	}
	return nil, false
}
