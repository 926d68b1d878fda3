// Package valueconv implements the derived value mapping (spec §6.3):
// converting Go structs and enums to/from value.Value by reflection,
// rather than hand-writing a converter per type. Mapstructure supplies
// the final struct-population step on decode; this package's own job is
// building the intermediate native Go tree (map[string]any / []any /
// scalars) from a Value for that step, encoding Go values to Value
// directly by reflection, and applying the field-renaming and skip
// policies spec §6.3 requires.
package valueconv

import (
	"strings"
	"unicode"
)

// RenamePolicy selects how a Go field name is transformed into its
// wire-level map key (spec §6.3: "configurable renaming policies").
type RenamePolicy int

const (
	AsIs RenamePolicy = iota
	CamelCase
	SnakeCase
	KebabCase
	UpperCase
	LowerCase
)

// splitWords breaks an identifier into lowercase words, treating both
// underscores/hyphens and capital-letter boundaries as separators so
// the same splitter works whether the Go field is "UserID" or the
// source already used "user_id".
func splitWords(name string) []string {
	var words []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-':
			flush()
		case unicode.IsUpper(r):
			// A new word starts at an uppercase letter, unless it
			// continues an existing run of uppercase letters (an
			// acronym like "ID" or "URL").
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if cur.Len() > 0 && (!prevUpper || nextLower) {
				flush()
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

// Apply renders name under policy.
func (p RenamePolicy) Apply(name string) string {
	words := splitWords(name)
	if len(words) == 0 {
		return name
	}
	switch p {
	case AsIs:
		return name
	case SnakeCase:
		return strings.Join(words, "_")
	case KebabCase:
		return strings.Join(words, "-")
	case UpperCase:
		return strings.ToUpper(strings.Join(words, ""))
	case LowerCase:
		return strings.ToLower(strings.Join(words, ""))
	case CamelCase:
		var b strings.Builder
		for i, w := range words {
			if i == 0 {
				b.WriteString(w)
				continue
			}
			b.WriteString(strings.ToUpper(w[:1]))
			b.WriteString(w[1:])
		}
		return b.String()
	default:
		return name
	}
}
