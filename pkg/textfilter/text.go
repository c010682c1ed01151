package textfilter

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ellipsis is appended to text shortened by Truncate.
const Ellipsis = "..."

// Truncate shortens s to at most limit runes, adding Ellipsis when anything was cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + Ellipsis
}

// TitleName normalizes a player-entered name: control characters are removed,
// whitespace is collapsed and each word is title cased. Words that already carry
// capitals past the first letter (McAllister, DuPont) are left alone.
func TitleName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	titleCaser := cases.Title(language.English)
	words := strings.Fields(cleaned)
	for i, w := range words {
		if hasInnerUpper(w) {
			continue
		}
		words[i] = titleCaser.String(strings.ToLower(w))
	}
	return strings.Join(words, " ")
}

func hasInnerUpper(w string) bool {
	for i, r := range []rune(w) {
		if i > 0 && unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// Join renders a list for prose, e.g. "a, b and c".
func Join(items []string, conj string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " " + conj + " " + items[len(items)-1]
}
