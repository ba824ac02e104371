// Package classify derives attributes a source does not publish from the
// code and free text it does. Every function is total: unknown input falls
// back to a documented default.
package classify

import (
	"strings"

	"github.com/gyeh/refload/internal/normalize"
)

// group is an ordered keyword set mapped to a value.
type group struct {
	value    string
	keywords []string
}

// prepare folds s and pads it with spaces so that keywords with a leading
// space only match at a word start.
func prepare(s string) string {
	s = normalize.Fold(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ';', '.', '(', ')', '/', '-', ':', '\t', '\n':
			return ' '
		}
		return r
	}, s)
	return " " + s + " "
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// firstMatch returns the value of the first group with a keyword in text.
func firstMatch(text string, groups []group) (string, bool) {
	for _, g := range groups {
		if containsAny(text, g.keywords) {
			return g.value, true
		}
	}
	return "", false
}
