package normalize

import (
	"strings"
	"time"
)

// Date layouts seen in MinSalud and INVIMA publications. Day-first layouts
// come before month-first ones.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate attempts to parse a date string in multiple common formats.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
