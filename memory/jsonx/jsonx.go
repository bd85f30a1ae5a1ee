// Package jsonx recovers JSON values from noisy LLM output.
//
// Model responses frequently wrap the payload in prose or markdown
// fences. Extract tries progressively looser strategies before giving
// up: strict parse, fenced code block, then a balanced-delimiter scan.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract returns the first well-formed JSON object or array found in
// text. It fails when no strategy yields valid JSON.
func Extract(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("empty input")
	}

	// Strategy 1: the whole response is already valid JSON.
	if isJSONValue(trimmed) {
		return trimmed, nil
	}

	// Strategy 2: a ```json fenced block.
	if block, ok := fencedBlock(trimmed); ok && isJSONValue(block) {
		return block, nil
	}

	// Strategy 3: balanced scan from the first { or [.
	if candidate, ok := balancedScan(trimmed); ok && isJSONValue(candidate) {
		return candidate, nil
	}

	return "", fmt.Errorf("no valid JSON value in response")
}

// Unmarshal extracts the first JSON value in text and decodes it into v.
func Unmarshal(text string, v interface{}) error {
	raw, err := Extract(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode extracted JSON: %w", err)
	}
	return nil
}

// isJSONValue reports whether s is a complete JSON object or array.
// Bare scalars are rejected: recovery targets structured payloads.
func isJSONValue(s string) bool {
	if len(s) == 0 || (s[0] != '{' && s[0] != '[') {
		return false
	}
	return gjson.Valid(s)
}

// fencedBlock returns the contents of the first markdown code fence.
func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	// Skip a language tag like "json" on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{[") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedScan finds the first { or [ and walks forward tracking
// nesting depth and string state until the delimiter closes.
func balancedScan(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	open := text[start]
	var closer byte = '}'
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
