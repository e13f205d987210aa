package render

import (
	"fmt"
	"slices"
	"strings"
)

// CSRFFieldName is the hidden input carrying the session's CSRF token.
const CSRFFieldName = "_csrf"

// HiddenField is a hidden input rendered next to the visible fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden formats value with fmt and trims name.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken is Hidden(CSRFFieldName, token).
func CSRFToken(token string) HiddenField {
	return Hidden(CSRFFieldName, token)
}

// MergeHiddenFields copies base and applies fields over it. Blank names are
// dropped and later fields win. A merge with nothing left returns nil.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	merged := make(map[string]string, len(base)+len(fields))
	for name, value := range base {
		addHidden(merged, Hidden(name, value))
	}
	for _, field := range fields {
		addHidden(merged, field)
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

func addHidden(into map[string]string, field HiddenField) {
	if name := strings.TrimSpace(field.Name); name != "" {
		into[name] = field.Value
	}
}

// SortedHiddenFields lists fields ordered by name.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	var list []HiddenField
	for name, value := range fields {
		if name = strings.TrimSpace(name); name != "" {
			list = append(list, HiddenField{Name: name, Value: value})
		}
	}
	slices.SortFunc(list, func(a, b HiddenField) int { return strings.Compare(a.Name, b.Name) })
	return list
}
