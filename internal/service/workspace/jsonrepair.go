package workspace

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON pulls a JSON object out of a raw LLM response and returns it
// as valid JSON text. It handles markdown code fences, surrounding prose
// and output truncated by the token limit.
func extractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```") {
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = strings.TrimSpace(text[:idx])
		}
	}

	// Locate the JSON start.
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	text = text[start:]

	if json.Valid([]byte(text)) {
		return text, nil
	}

	if repaired, ok := repairTruncatedJSON(text); ok {
		return repaired, nil
	}

	// Last resort: report the original parse error.
	var parsed map[string]any
	err := json.Unmarshal([]byte(text), &parsed)
	return "", fmt.Errorf("parse JSON response: %w", err)
}

// repairTruncatedJSON attempts to repair JSON cut off by a token limit.
// It walks the string tracking open braces and brackets while respecting
// string literals, trims a trailing incomplete value, then appends the
// missing closers. ok is false when the text is not truncated or the
// repaired text still fails to parse.
func repairTruncatedJSON(text string) (string, bool) {
	if len(openClosers(text)) == 0 {
		return "", false
	}

	// Trim back a possible cut-off trailing value to the last structural
	// character.
	trimmed := strings.TrimRight(text, " \t\r\n")
	for len(trimmed) > 0 && !strings.ContainsRune(`,:{[}]"`, rune(trimmed[len(trimmed)-1])) {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if strings.HasSuffix(trimmed, ":") {
		trimmed += `""`
	} else if strings.HasSuffix(trimmed, ",") {
		trimmed = trimmed[:len(trimmed)-1]
	}

	closers := openClosers(trimmed)
	var sb strings.Builder
	sb.WriteString(trimmed)
	for i := len(closers) - 1; i >= 0; i-- {
		sb.WriteByte(closers[i])
	}

	repaired := sb.String()
	if !json.Valid([]byte(repaired)) {
		return "", false
	}
	return repaired, true
}

// openClosers returns the closers for every unclosed brace or bracket in
// text, in opening order. String literals and their escapes are skipped.
func openClosers(text string) []byte {
	var stack []byte
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"':
			i++
			for i < len(text) {
				if text[i] == '\\' {
					i += 2
					continue
				}
				if text[i] == '"' {
					break
				}
				i++
			}
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return stack
}
