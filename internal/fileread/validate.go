package fileread

import (
	"fmt"
	"strings"

	"github.com/gyeh/refload/internal/normalize"
)

// RequireColumn checks that headers carry field under its canonical name
// or one of its candidates.
func RequireColumn(headers []string, s normalize.Schema, field string) error {
	probe := make(map[string]any, len(headers))
	for _, h := range headers {
		probe[h] = "x"
	}
	if _, ok := normalize.NewFields(probe).Raw(s, field); ok {
		return nil
	}
	return fmt.Errorf("missing required column %s; expected one of: %s",
		field, strings.Join(append([]string{field}, s[field]...), ", "))
}
