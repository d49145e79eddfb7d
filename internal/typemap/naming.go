package typemap

import "strings"

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// Sanitize replaces every character outside [A-Za-z0-9_] with '_' and
// prefixes a leading digit with '_', yielding a valid GraphQL name part.
func Sanitize(raw string) string {
	if raw == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(raw) + 1)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if isWordByte(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// splitWords breaks a raw name into word runs at non-alphanumeric boundaries
// and lower-to-upper case transitions.
func splitWords(raw string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case !isWordByte(c) || c == '_':
			flush()
		case c >= 'A' && c <= 'Z' && i > 0 && raw[i-1] >= 'a' && raw[i-1] <= 'z':
			flush()
			cur.WriteByte(c)
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return words
}

// isPascal reports whether s is already a sanitized PascalCase name: an
// uppercase first byte followed only by letters and digits.
func isPascal(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isWordByte(s[i]) || s[i] == '_' {
			return false
		}
	}
	return true
}

// TypeName renders a raw name in PascalCase, sanitized. A name that is
// already sanitized PascalCase passes through unchanged, so the function is
// idempotent on composed names such as parent-plus-field type names.
func TypeName(raw string) string {
	if isPascal(raw) {
		return raw
	}
	words := splitWords(raw)
	if len(words) == 0 {
		return Sanitize(raw)
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(strings.ToLower(w[1:]))
	}
	return Sanitize(b.String())
}

// FieldName renders a raw name in camelCase, sanitized.
func FieldName(raw string) string {
	pascal := TypeName(raw)
	if pascal == "" {
		return pascal
	}
	if pascal[0] == '_' {
		return pascal
	}
	return strings.ToLower(pascal[:1]) + pascal[1:]
}

// EnumValueName renders a raw enum value in UPPER_SNAKE_CASE: the raw value
// upper-cased with every non-identifier character replaced by '_'.
func EnumValueName(raw string) string {
	return Sanitize(strings.ToUpper(raw))
}

// Capitalize upper-cases the first byte of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
