package text

import (
	"regexp"
	"strings"
)

var (
	spaceRuns = regexp.MustCompile(`[ \t]+`)
	blankRuns = regexp.MustCompile(`\n{2,}`)
)

// Clean normalizes extracted text before chunking: CRLF/CR become LF, runs
// of spaces and tabs collapse to a single space, runs of blank lines
// collapse to one paragraph break, and the ends are trimmed. Clean is
// idempotent.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
