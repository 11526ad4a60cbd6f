// Package extract pulls JSON payloads out of free-form provider text.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

const fence = "```"

// tagLine matches a language tag alone on the opening fence line.
var tagLine = regexp.MustCompile(`^[A-Za-z0-9_+.-]+[ \t]*\r?\n`)

// JSON returns the best candidate substring of raw for strict JSON parsing.
// It never fails; the result is not validated.
func JSON(raw string) string {
	var text string
	if block, ok := innermostFenced(raw); ok {
		text = block
	} else {
		text = strings.TrimSpace(raw)
		if strings.HasPrefix(text, fence) {
			text = stripTag(strings.TrimPrefix(text, fence))
		}
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, fence)
	return strings.TrimSpace(text)
}

// innermostFenced returns the content between adjacent fence markers. The
// first span that looks like JSON wins; otherwise the first span is used.
// ok is false when raw has fewer than two markers.
func innermostFenced(raw string) (string, bool) {
	var marks []int
	for i := 0; ; {
		j := strings.Index(raw[i:], fence)
		if j < 0 {
			break
		}
		marks = append(marks, i+j)
		i += j + len(fence)
	}
	if len(marks) < 2 {
		return "", false
	}

	first := ""
	for k := 0; k+1 < len(marks); k++ {
		body := strings.TrimSpace(stripTag(raw[marks[k]+len(fence) : marks[k+1]]))
		if k == 0 {
			first = body
		}
		if strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") {
			return body, true
		}
	}
	return first, true
}

// stripTag drops a language tag that directly follows an opening fence.
func stripTag(s string) string {
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		return s[4:]
	}
	if loc := tagLine.FindStringIndex(s); loc != nil {
		return s[loc[1]:]
	}
	return s
}

// Unmarshal extracts JSON from raw and decodes it into v. When the fenced
// candidate does not parse, it falls back to the outermost object or array
// span of the candidate and then of raw, then to closing any delimiters left
// open by a truncated response.
func Unmarshal(raw string, v any) error {
	candidate := JSON(raw)
	if candidate == "" {
		return eris.New("extract: no json content")
	}

	err := json.Unmarshal([]byte(candidate), v)
	if err == nil {
		return nil
	}

	if span := outermostSpan(candidate); span != "" && span != candidate {
		if json.Unmarshal([]byte(span), v) == nil {
			return nil
		}
		candidate = span
	}
	if span := outermostSpan(raw); span != "" && span != candidate {
		if json.Unmarshal([]byte(span), v) == nil {
			return nil
		}
	}

	if repaired := RepairTruncated(candidate); repaired != candidate {
		if json.Unmarshal([]byte(repaired), v) == nil {
			return nil
		}
	}

	return eris.Wrap(err, "extract: parse json")
}

// outermostSpan returns text from the first '{' or '[' to the matching last
// '}' or ']', or "" when no such span exists.
func outermostSpan(text string) string {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return text[start:]
	}
	return text[start : end+1]
}

// RepairTruncated closes any unclosed brackets or braces in truncated JSON.
func RepairTruncated(text string) string {
	if len(text) == 0 {
		return text
	}

	var stack []byte
	inString := false
	escape := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if escape {
			escape = false
			continue
		}

		if c == '\\' && inString {
			escape = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		switch c {
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		text += `"`
	}

	// Close unclosed delimiters in reverse order.
	for i := len(stack) - 1; i >= 0; i-- {
		text = strings.TrimRight(text, " \t\n\r,")
		text += string(stack[i])
	}

	return text
}
