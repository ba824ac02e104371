package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace and trims the input.
func CleanText(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}
