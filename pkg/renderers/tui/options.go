package tui

import (
	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/validation"
)

// OutputFormat controls how the submitted snapshot is serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// DefaultMaxAttempts bounds how often a field is re-asked while invalid.
const DefaultMaxAttempts = 3

// ParseOutputFormat resolves a format name, reporting false for unknown ones.
func ParseOutputFormat(name string) (OutputFormat, bool) {
	switch OutputFormat(name) {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
		return OutputFormat(name), true
	}
	return "", false
}

// Theme captures message prefixes the renderer applies when printing.
type Theme struct {
	ErrorPrefix string
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithMaxAttempts sets how many answers a field gets before the renderer moves
// on. Values below one are ignored.
func WithMaxAttempts(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithValidator swaps the rule table of the controllers the renderer creates.
func WithValidator(v *validation.Validator) Option {
	return func(r *Renderer) {
		r.validator = v
	}
}

// WithObserver subscribes fn to every controller the renderer creates.
func WithObserver(fn contact.Observer) Option {
	return func(r *Renderer) {
		r.observer = fn
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}
