package normalize

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Schema maps a canonical field name to the ordered source keys that may
// carry it. The canonical name itself is always tried first.
type Schema map[string][]string

// Fields is a raw source object indexed by folded key.
type Fields struct {
	byKey map[string]any
}

// NewFields indexes raw. When several raw keys fold to the same key, a key
// already spelled in folded form wins; otherwise the first non-empty value
// in sorted key order wins.
func NewFields(raw map[string]any) Fields {
	idx := make(map[string]any, len(raw))
	exact := make(map[string]bool, len(raw))
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		v := raw[k]
		fk := foldKey(k)
		isExact := k == fk
		if prev, ok := idx[fk]; ok && !isEmpty(prev) && (exact[fk] || !isExact || isEmpty(v)) {
			continue
		}
		idx[fk] = v
		exact[fk] = isExact
	}
	return Fields{byKey: idx}
}

// Raw returns the value for the first candidate key of field that holds a
// non-empty value.
func (f Fields) Raw(s Schema, field string) (any, bool) {
	if v, ok := f.lookup(field); ok {
		return v, true
	}
	for _, cand := range s[field] {
		if v, ok := f.lookup(cand); ok {
			return v, true
		}
	}
	return nil, false
}

func (f Fields) lookup(key string) (any, bool) {
	v, ok := f.byKey[foldKey(key)]
	if !ok || isEmpty(v) {
		return nil, false
	}
	return v, true
}

// Str returns the field as trimmed text, or "" when absent.
func (f Fields) Str(s Schema, field string) string {
	v, ok := f.Raw(s, field)
	if !ok {
		return ""
	}
	return CleanText(toString(v))
}

// OptStr returns the field as trimmed text, or nil when absent.
func (f Fields) OptStr(s Schema, field string) *string {
	v := f.Str(s, field)
	if v == "" {
		return nil
	}
	return &v
}

// Num returns the field as a non-negative number, or nil when absent,
// unparseable or negative.
func (f Fields) Num(s Schema, field string) *float64 {
	v, ok := f.Raw(s, field)
	if !ok {
		return nil
	}
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case int32:
		n = float64(t)
	default:
		p := ParseAmount(toString(v))
		if p == nil {
			return nil
		}
		n = *p
	}
	if n < 0 {
		return nil
	}
	return &n
}

// Flag returns the field as a boolean, or def when absent or unrecognised.
func (f Fields) Flag(s Schema, field string, def bool) bool {
	v, ok := f.Raw(s, field)
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return ParseBool(toString(v), def)
}

// Date returns the field parsed as a date, or nil.
func (f Fields) Date(s Schema, field string) *time.Time {
	v, ok := f.Raw(s, field)
	if !ok {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		return &t
	}
	return ParseDate(toString(v))
}

var trueWords = map[string]bool{
	"si": true, "s": true, "true": true, "t": true, "1": true, "yes": true, "y": true, "x": true,
	"activo": true, "activa": true, "vigente": true, "aplica": true,
}

var falseWords = map[string]bool{
	"no": true, "n": true, "false": true, "f": true, "0": true,
	"inactivo": true, "inactiva": true, "vencido": true, "cancelado": true, "no aplica": true,
}

// ParseBool interprets Spanish and English yes/no spellings.
func ParseBool(s string, def bool) bool {
	k := Fold(strings.TrimSpace(s))
	switch {
	case trueWords[k]:
		return true
	case falseWords[k]:
		return false
	}
	return def
}

// Fold lower-cases s and strips diacritics ("Código" -> "codigo").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func foldKey(k string) string {
	k = Fold(strings.TrimSpace(k))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' || r == '-' || r == '.' {
			return -1
		}
		return r
	}, k)
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
