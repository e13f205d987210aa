package contact

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownField is returned by SetField for names outside the four form
// fields.
var ErrUnknownField = errors.New("contact: unknown field")

// ValidationError wraps the errors of a failed submit for surfaces that report
// through Go errors (terminal sessions, JSON APIs).
type ValidationError struct {
	Errors Errors
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "contact: validation failed"
	}
	keys := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		keys = append(keys, string(field))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, e.Errors[Field(key)])
	}
	return fmt.Sprintf("contact: validation failed: %s", strings.Join(parts, " "))
}
