package model

import (
	"strings"
	"unicode"
)

// DefaultLabeler turns a property name into a label: "firstName" and
// "first_name" both become "First Name".
func DefaultLabeler(name string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, capitalize(string(current)))
			current = current[:0]
		}
	}

	var prev rune
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
		prev = r
	}
	flush()
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
