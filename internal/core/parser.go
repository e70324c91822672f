package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseLabels extracts a validated label set from raw model text. Models
// wrap their answer in markdown fences, prepend commentary or return
// malformed JSON often enough that every failure path here degrades to an
// empty result instead of failing the message. A non-nil error is purely
// diagnostic: the returned result is always usable.
//
// Accepted shapes are a JSON object with a "labels" array or a bare JSON
// array of strings. Values are matched case-insensitively against the
// configured taxonomy and emitted in canonical casing; unknown labels and
// non-string entries are dropped, duplicates collapse to one.
func ParseLabels(raw string, labels *LabelSet) (ClassificationResult, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ClassificationResult{}, fmt.Errorf("%w: empty response", ErrUnparseableResponse)
	}

	stripped := text
	if strings.Contains(text, "```") {
		stripped = stripCodeFences(text)
	}

	// First attempt: the fence-stripped text is JSON as a whole.
	if values, ok := decodeLabelValues(stripped); ok {
		return validateLabels(values, labels), nil
	}

	// Second attempt: the first balanced JSON object or array embedded in
	// surrounding commentary.
	if values, ok := scanEmbeddedJSON(stripped); ok {
		return validateLabels(values, labels), nil
	}

	// A stray or misplaced fence can hide JSON outside the stripped
	// block, so the unstripped text gets a final scan.
	if stripped != text {
		if values, ok := scanEmbeddedJSON(text); ok {
			return validateLabels(values, labels), nil
		}
	}

	return ClassificationResult{}, fmt.Errorf("%w: no JSON found in %q", ErrUnparseableResponse, truncateForLog(raw))
}

// stripCodeFences unwraps the content of the first markdown code block,
// tolerating an optional language tag after the opening fence. An
// unmatched fence is commentary, not a code block, and the text comes
// back unchanged.
func stripCodeFences(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	rest := text[start+3:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return text
	}
	rest = rest[:end]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		// A language tag like "json" sits on the fence line itself.
		if firstLine == "" || !strings.ContainsAny(firstLine, "{}[]") {
			rest = rest[nl+1:]
		} else {
			rest = strings.TrimPrefix(rest, "json")
		}
	} else {
		rest = strings.TrimPrefix(rest, "json")
	}
	return strings.TrimSpace(rest)
}

// scanEmbeddedJSON finds the first balanced JSON object or array in text
// that decodes to one of the accepted label shapes.
func scanEmbeddedJSON(text string) ([]any, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		candidate, ok := balancedJSON(text[i:])
		if !ok {
			continue
		}
		if values, ok := decodeLabelValues(candidate); ok {
			return values, true
		}
		// Skip past this candidate so nested openers are not retried.
		i += len(candidate) - 1
	}
	return nil, false
}

// decodeLabelValues parses text as one of the accepted JSON shapes and
// returns the raw label values. ok is false when the text is not valid
// JSON or has an unexpected structure.
func decodeLabelValues(text string) ([]any, bool) {
	var direct []any
	if err := json.Unmarshal([]byte(text), &direct); err == nil {
		return direct, true
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	field, ok := obj["labels"]
	if !ok {
		return nil, false
	}
	values, ok := field.([]any)
	if !ok {
		return nil, false
	}
	return values, true
}

// validateLabels filters raw values against the taxonomy, canonicalizing
// case and collapsing duplicates. Hallucinated labels never propagate.
func validateLabels(values []any, labels *LabelSet) ClassificationResult {
	seen := make(map[string]bool, len(values))
	var valid []string
	for _, v := range values {
		name, ok := v.(string)
		if !ok {
			continue
		}
		canonical, ok := labels.Canonical(name)
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		valid = append(valid, canonical)
	}
	return ClassificationResult{Labels: valid}
}

// balancedJSON returns the shortest balanced object or array at the start
// of s, respecting string literals and escapes.
func balancedJSON(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
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
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

func truncateForLog(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
