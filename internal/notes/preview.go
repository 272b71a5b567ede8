package notes

import (
	"strings"
	"unicode/utf8"
)

// ContentPreview keeps the first maxLines lines of content and marks the cut
// with a final "..." line. Shorter content comes back unchanged.
func ContentPreview(content string, maxLines int) string {
	if maxLines <= 0 {
		return content
	}
	lines := strings.SplitN(content, "\n", maxLines+1)
	if len(lines) <= maxLines {
		return content
	}
	return strings.Join(lines[:maxLines], "\n") + "\n..."
}

// CountLines returns the number of lines in content.
// An empty string has 0 lines.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

// Summary collapses content to a single line of at most maxRunes runes, for
// one-row-per-note listings.
func Summary(content string, maxRunes int) string {
	line := strings.Join(strings.Fields(content), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(line) <= maxRunes {
		return line
	}
	runes := []rune(line)
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
