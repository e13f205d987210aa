package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/validation"
)

// Renderer implements render.Renderer for terminal sessions. Each Render call
// drives a fresh contact controller through the prompts and serializes the
// accepted snapshot.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	maxAttempts  int
	validator    *validation.Validator
	observer     contact.Observer
	theme        Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		driver:       NewSurveyDriver(nil, nil, nil),
		outputFormat: OutputFormatJSON,
		maxAttempts:  DefaultMaxAttempts,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if _, ok := ParseOutputFormat(string(r.outputFormat)); !ok {
		return nil, fmt.Errorf("tui: unknown output format %q", r.outputFormat)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts every field of form, submits, and serializes the snapshot.
// opts.Values seed the prompt defaults. A rejected submit returns a
// *contact.ValidationError.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	c := r.newController()
	values, err := r.Collect(ctx, form, c, opts.Values)
	if err != nil {
		return nil, err
	}
	return r.serialize(form, values)
}

// Collect runs the prompt loop against an existing controller. Each answer
// goes through SetField; a field is re-asked while it has an error, up to the
// configured attempts, then Submit decides.
func (r *Renderer) Collect(ctx context.Context, form model.FormModel, c *contact.Controller, defaults map[string]string) (contact.Values, error) {
	if ctx == nil {
		return contact.Values{}, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return contact.Values{}, err
	}
	if r.driver == nil {
		return contact.Values{}, ErrPromptDriver
	}

	for _, f := range form.Fields {
		field, ok := contact.ParseField(f.Name)
		if !ok {
			return contact.Values{}, fmt.Errorf("tui: field %q: %w", f.Name, contact.ErrUnknownField)
		}
		if err := r.promptField(ctx, c, f, field, defaults[f.Name]); err != nil {
			return contact.Values{}, err
		}
	}

	if !c.Submit() {
		return contact.Values{}, &contact.ValidationError{Errors: c.Errors()}
	}
	values, _ := c.Submitted()
	return values, nil
}

func (r *Renderer) promptField(ctx context.Context, c *contact.Controller, f model.Field, field contact.Field, def string) error {
	q := Question{
		Name:      f.Name,
		Label:     f.Label,
		Default:   def,
		Help:      f.Description,
		Multiline: f.Type == model.FieldTypeTextarea,
	}
	if q.Label == "" {
		q.Label = f.Name
	}

	for attempt := 1; ; attempt++ {
		answer, err := r.driver.Ask(ctx, q)
		if err != nil {
			return err
		}
		if err := c.SetField(field, answer); err != nil {
			return err
		}

		message, invalid := c.Errors()[field]
		if !invalid {
			return nil
		}
		if err := r.driver.Notify(ctx, r.theme.ErrorPrefix+"Error: "+message); err != nil {
			return err
		}
		if attempt >= r.maxAttempts {
			return nil
		}
		q.Default = answer
	}
}

func (r *Renderer) newController() *contact.Controller {
	return contact.New(
		contact.WithValidator(r.validator),
		contact.WithObserver(r.observer),
	)
}

func (r *Renderer) serialize(form model.FormModel, values contact.Values) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		encoded := url.Values{}
		for name, value := range values.Map() {
			encoded.Set(name, value)
		}
		return []byte(encoded.Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(form, values)), nil
	default:
		return json.Marshal(values)
	}
}

// prettyPrint mirrors the HTML summary: labels without the required marker,
// and optional lines only when the submitted value is non-empty.
func prettyPrint(form model.FormModel, values contact.Values) string {
	var b strings.Builder
	b.WriteString("You Submitted:\n")
	for _, f := range form.Fields {
		field, ok := contact.ParseField(f.Name)
		if !ok {
			continue
		}
		value := values.Get(field)
		if !f.Required && value == "" {
			continue
		}
		label := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(f.Label), "*"))
		if label == "" {
			label = f.Name
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}
	return b.String()
}
