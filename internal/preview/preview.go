// Package preview builds the one-line summaries shown for history items.
package preview

import (
	"strings"
	"unicode"

	"github.com/yiblet/haste/internal/store"
)

// Item returns a one-line summary of the item's content: the first
// non-empty line for text kinds, the reference itself otherwise.
func Item(item *store.Item, maxLen int) string {
	if !item.Kind.Indexed() {
		return Truncate(Sanitize(item.ContentRef), maxLen)
	}

	for _, line := range strings.Split(item.ContentRef, "\n") {
		if cleaned := Sanitize(line); cleaned != "" {
			return Truncate(cleaned, maxLen)
		}
	}
	return "[empty]"
}

// Truncate ensures title is at most maxLen characters.
// If truncation is needed, appends "..." to indicate truncation.
func Truncate(title string, maxLen int) string {
	title = strings.TrimSpace(title)

	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}

	// Reserve 3 characters for "..."
	if maxLen < 3 {
		return strings.Repeat(".", maxLen)
	}

	return string(runes[:maxLen-3]) + "..."
}

// Sanitize removes control characters and collapses whitespace.
// This ensures titles are safe for display in terminals.
func Sanitize(title string) string {
	title = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, title)

	return strings.Join(strings.Fields(title), " ")
}
