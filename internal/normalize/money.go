package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount parses a monetary or numeric amount as published by Colombian
// sources. Both "1.234.567,89" and "1234567.89" are accepted, as are
// currency symbols and thousands separators. Returns nil for empty,
// unparseable or negative input.
func ParseAmount(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", "COP", "", "cop", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return nil
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// The right-most separator is the decimal mark.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || groupsThousands(s, lastComma) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || groupsThousands(s, lastDot) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// groupsThousands reports whether the lone separator at i reads as a
// thousands separator: "1.200" and "25,000" do, "0.500" and "1234.567" don't.
func groupsThousands(s string, i int) bool {
	intPart := strings.TrimPrefix(s[:i], "-")
	return len(s)-i-1 == 3 && len(intPart) >= 1 && len(intPart) <= 3 && intPart != "0"
}

// RoundMinutes converts a possibly fractional minute count to whole minutes.
func RoundMinutes(v *float64) *int {
	if v == nil {
		return nil
	}
	m := int(math.Round(*v))
	return &m
}
