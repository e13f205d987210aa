package render

import (
	"strings"

	"github.com/goliatone/go-contactform/pkg/model"
)

// ErrorMapping splits an external error payload into field-level and
// form-level messages keyed by the form's field names.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors appends extras to existing, trims every message and drops
// blanks and repeats. The first occurrence keeps its position.
func MergeFormErrors(existing []string, extras ...string) []string {
	return cleanMessages(append(append([]string(nil), existing...), extras...))
}

// MapErrorPayload attaches messages produced by another service to the
// form's fields. Keys may be JSON pointers ("/body/email"), JSONPath
// ("$.email", "$['email']") or dotted paths ("data.firstName"). Keys that do
// not resolve to a field become form-level messages.
func MapErrorPayload(form model.FormModel, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	for key, messages := range payload {
		messages = cleanMessages(messages)
		if len(messages) == 0 {
			continue
		}
		name, ok := fieldForPath(form, key)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[name] = cleanMessages(append(mapping.Fields[name], messages...))
	}
	mapping.Form = cleanMessages(mapping.Form)
	return mapping
}

func cleanMessages(messages []string) []string {
	var out []string
	seen := make(map[string]bool, len(messages))
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" || seen[message] {
			continue
		}
		seen[message] = true
		out = append(out, message)
	}
	return out
}

// envelope segments that wrap the submitted object in common error formats.
var envelopeSegments = map[string]bool{
	"body":       true,
	"request":    true,
	"payload":    true,
	"data":       true,
	"attributes": true,
	"properties": true,
}

var formLevelKeys = map[string]bool{
	"form":             true,
	"__all__":          true,
	"non_field_errors": true,
	"non-field-errors": true,
}

func fieldForPath(form model.FormModel, key string) (string, bool) {
	segments := pathSegments(key)
	for len(segments) > 0 && envelopeSegments[strings.ToLower(segments[0])] {
		segments = segments[1:]
	}
	if len(segments) == 0 || formLevelKeys[strings.ToLower(segments[0])] {
		return "", false
	}
	if _, ok := form.Field(segments[0]); !ok {
		return "", false
	}
	return segments[0], true
}

// pathSegments tokenizes a pointer, JSONPath or dotted key. "~1" and "~0"
// are unescaped as in JSON pointers.
func pathSegments(key string) []string {
	key = strings.TrimLeft(strings.TrimSpace(key), "#$./")
	key = strings.NewReplacer("['", ".", "']", "", "[", ".", "]", "").Replace(key)

	var segments []string
	for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '.' || r == '/' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		segments = append(segments, strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~"))
	}
	return segments
}
