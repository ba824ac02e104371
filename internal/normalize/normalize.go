// Package normalize turns loosely-shaped source values into canonical
// record fields: key folding, candidate-key lookup, codes, amounts, dates
// and free text.
package normalize

// OptStr returns nil for the empty string.
func OptStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
