package llm

import "strings"

// ExtractJSON pulls the first {...} object out of a raw completion. Models
// wrap JSON in markdown fences or surrounding prose more often than not, so
// the scan is tolerant: it starts at the first '{' and tracks brace depth,
// skipping braces inside string literals. Returns "" when no complete object
// is present.
func ExtractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return content[start : i+1]
				}
			}
		}
	}
	return ""
}

// ExtractText strips markdown code fences and surrounding whitespace from a
// completion, returning the plain answer text.
func ExtractText(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		// Drop the opening fence line and the closing fence, if any
		if idx := strings.IndexByte(content, '\n'); idx != -1 {
			content = content[idx+1:]
		} else {
			content = strings.TrimPrefix(content, "```")
		}
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
