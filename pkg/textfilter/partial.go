package textfilter

import "strings"

// sceneKey is the JSON key whose value is rendered while a response streams in.
const sceneKey = `"sceneText"`

// PartialScene extracts the scene text from an incomplete JSON document. It returns ""
// until the opening quote of the value has arrived. The value runs to the first
// unescaped quote, or to the end of the buffer if the value is still streaming.
// Malformed input never panics; it just yields less text.
func PartialScene(buffer string) string {
	start := strings.Index(buffer, sceneKey)
	if start < 0 {
		return ""
	}
	rest := strings.TrimLeft(buffer[start+len(sceneKey):], " \t\r\n")
	if !strings.HasPrefix(rest, ":") {
		return ""
	}
	rest = strings.TrimLeft(rest[1:], " \t\r\n")
	if !strings.HasPrefix(rest, `"`) {
		return ""
	}
	rest = rest[1:]

	if end := closingQuote(rest); end >= 0 {
		rest = rest[:end]
	}
	return Unescape(rest)
}

// closingQuote returns the index of the first quote in s not preceded by an escaping
// backslash, or -1.
func closingQuote(s string) int {
	escaped := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '"':
			return i
		}
	}
	return -1
}

// Unescape resolves the \n, \" and \\ escape sequences for display. Any other
// escape is kept verbatim and a dangling trailing backslash is dropped.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			break
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
