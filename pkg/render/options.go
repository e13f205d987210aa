package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-contactform/pkg/contact"
)

// RenderOptions describe per-request data that renderers use to draw the
// current controller state without mutating the form model.
type RenderOptions struct {
	// Action overrides the form endpoint declared by the model.
	Action string
	// Values pre-populates rendered controls keyed by field name.
	Values map[string]string
	// Errors surfaces validation feedback keyed by field name. Each message
	// renders as one error indicator.
	Errors map[string][]string
	// FormErrors carries messages that could not be tied to a field.
	FormErrors []string
	// Submitted holds the accepted snapshot. Nil means nothing has been
	// submitted yet and the display section is omitted.
	Submitted map[string]string
	// HiddenFields are emitted as hidden inputs (CSRF tokens and the like).
	HiddenFields map[string]string
	// Theme carries resolved theme tokens and partial overrides.
	Theme *theme.RendererConfig
}

// OptionsFromState projects a controller state into render options.
func OptionsFromState(state contact.State) RenderOptions {
	opts := RenderOptions{
		Values: state.Values.Map(),
	}
	if len(state.Errors) > 0 {
		opts.Errors = make(map[string][]string, len(state.Errors))
		for field, msg := range state.Errors {
			opts.Errors[string(field)] = []string{msg}
		}
	}
	if state.Submitted != nil {
		opts.Submitted = state.Submitted.Map()
	}
	return opts
}

// ErrorCount returns the number of field and form level messages.
func (o RenderOptions) ErrorCount() int {
	total := len(o.FormErrors)
	for _, messages := range o.Errors {
		total += len(messages)
	}
	return total
}
