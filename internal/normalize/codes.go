package normalize

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
	diagnosisCode   = regexp.MustCompile(`^[A-Z][0-9][0-9A-Z](\.[0-9A-Z]{1,2})?$`)
)

// NormalizeCode trims whitespace, uppercases, and strips non-alphanumeric characters.
// Returns nil if the input is nil or the result is empty.
func NormalizeCode(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	s = strings.ToUpper(s)
	s = nonAlphanumeric.ReplaceAllString(s, "")
	if s == "" {
		return nil
	}
	return &s
}

// Code is NormalizeCode over a plain string; "" when nothing remains.
func Code(s string) string {
	if c := NormalizeCode(&s); c != nil {
		return *c
	}
	return ""
}

// DiagnosisCode canonicalises a CIE-10 code to "A00" or "A00.0" form
// ("j189" -> "J18.9", "J18-9" -> "J18.9"). Returns "" when the input is
// not a well-formed code.
func DiagnosisCode(s string) string {
	c := Code(s)
	if len(c) < 3 {
		return ""
	}
	if len(c) > 3 {
		c = c[:3] + "." + c[3:]
	}
	if !diagnosisCode.MatchString(c) {
		return ""
	}
	return c
}
