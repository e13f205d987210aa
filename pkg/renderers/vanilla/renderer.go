package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
	rendertemplate "github.com/goliatone/go-contactform/pkg/render/template"
	gotemplate "github.com/goliatone/go-contactform/pkg/render/template/gotemplate"
)

const formTemplate = "templates/contact.tmpl"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templatesDir     string
	templateRenderer rendertemplate.TemplateRenderer
	stylesheets      []string
	scripts          []string
	inlineStyles     bool
	fieldEndpoint    string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir layers a directory on disk over the template bundle, so it
// only needs the templates it overrides.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templatesDir = strings.TrimSpace(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithStylesheet links an external stylesheet in the page head.
func WithStylesheet(href string) Option {
	return func(cfg *config) {
		if href = strings.TrimSpace(href); href != "" {
			cfg.stylesheets = append(cfg.stylesheets, href)
		}
	}
}

// WithScript appends a script tag after the form.
func WithScript(src string) Option {
	return func(cfg *config) {
		if src = strings.TrimSpace(src); src != "" {
			cfg.scripts = append(cfg.scripts, src)
		}
	}
}

// WithDefaultStyles inlines the embedded stylesheet.
func WithDefaultStyles() Option {
	return func(cfg *config) {
		cfg.inlineStyles = true
	}
}

// WithFieldEndpoint sets the URL the runtime script posts single field
// changes to. Without it the script stays idle and validation happens on
// submit only.
func WithFieldEndpoint(url string) Option {
	return func(cfg *config) {
		cfg.fieldEndpoint = strings.TrimSpace(url)
	}
}

// Renderer draws the contact form as a standalone HTML page.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	sanitizer *bluemonday.Policy
	cfg       config
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithDir(cfg.templatesDir),
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates: renderer,
		sanitizer: bluemonday.UGCPolicy(),
		cfg:       cfg,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render draws the page: header, one control per field with its error
// indicators, the submit button, and the submitted display when a snapshot
// is present.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}

	partials := partialPaths(options)

	fields := make([]fieldView, 0, len(form.Fields))
	for _, field := range form.Fields {
		view, err := r.renderField(field, options, partials)
		if err != nil {
			return nil, err
		}
		fields = append(fields, view)
	}

	page := r.pageView(form, options, fields)
	if options.Submitted != nil {
		display, err := r.renderDisplay(form, options.Submitted, partials)
		if err != nil {
			return nil, err
		}
		page.Display = display
	}

	result, err := r.templates.RenderTemplate(formTemplate, map[string]any{"page": page})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) renderField(field model.Field, options render.RenderOptions, partials map[string]string) (fieldView, error) {
	view := newFieldView(field, options)
	view.Description = r.sanitizer.Sanitize(view.Description)

	var errs strings.Builder
	for _, message := range view.Messages {
		markup, err := r.templates.RenderTemplate(partials[render.PartialError], map[string]any{
			"message": message,
			"field":   view.Name,
		})
		if err != nil {
			return fieldView{}, fmt.Errorf("vanilla renderer: render error for %q: %w", field.Name, err)
		}
		errs.WriteString(markup)
	}
	view.ErrorsHTML = errs.String()

	partial := partials[render.PartialInput]
	if field.Type == model.FieldTypeTextarea {
		partial = partials[render.PartialTextarea]
	}
	markup, err := r.templates.RenderTemplate(partial, map[string]any{"field": view})
	if err != nil {
		return fieldView{}, fmt.Errorf("vanilla renderer: render field %q: %w", field.Name, err)
	}
	view.Markup = markup
	return view, nil
}

func (r *Renderer) renderDisplay(form model.FormModel, submitted map[string]string, partials map[string]string) (string, error) {
	items := make([]displayItem, 0, len(form.Fields))
	for _, field := range form.Fields {
		value := submitted[field.Name]
		// Optional fields only show up when filled.
		if !field.Required && value == "" {
			continue
		}
		items = append(items, displayItem{
			TestID: strings.ToLower(field.Name) + "Display",
			Label:  displayLabel(field),
			Value:  value,
		})
	}

	markup, err := r.templates.RenderTemplate(partials[render.PartialDisplay], map[string]any{"items": items})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render display: %w", err)
	}
	return markup, nil
}

func (r *Renderer) pageView(form model.FormModel, options render.RenderOptions, fields []fieldView) pageView {
	page := pageView{
		Title:         form.Title,
		Description:   r.sanitizer.Sanitize(form.Description),
		Action:        form.Endpoint,
		Method:        strings.ToLower(form.Method),
		SubmitLabel:   form.SubmitLabel,
		Fields:        fields,
		FormErrors:    options.FormErrors,
		FieldEndpoint: r.cfg.fieldEndpoint,
		Stylesheets:   append([]string(nil), r.cfg.stylesheets...),
		Scripts:       append([]string(nil), r.cfg.scripts...),
	}
	if options.Action != "" {
		page.Action = options.Action
	}
	if page.Method == "" {
		page.Method = "post"
	}
	if page.Title == "" {
		page.Title = "Contact Form"
	}
	if page.SubmitLabel == "" {
		page.SubmitLabel = "Submit"
	}
	if r.cfg.inlineStyles {
		page.InlineStyle = defaultStylesheet()
	}
	for _, hidden := range render.SortedHiddenFields(options.HiddenFields) {
		page.Hidden = append(page.Hidden, hiddenView{Name: hidden.Name, Value: hidden.Value})
	}

	if cfg := options.Theme; cfg != nil {
		page.Theme = cfg.Theme
		page.Variant = cfg.Variant
		page.CSSVars = render.CSSVarsStyle(cfg.CSSVars)
		if cfg.AssetURL != nil {
			if href := cfg.AssetURL("vanilla.stylesheet"); href != "" {
				page.Stylesheets = append(page.Stylesheets, href)
			}
			if src := cfg.AssetURL("vanilla.script"); src != "" {
				page.Scripts = append(page.Scripts, src)
			}
		}
	}
	return page
}

func partialPaths(options render.RenderOptions) map[string]string {
	paths := render.DefaultPartials()
	if options.Theme == nil {
		return paths
	}
	for key, path := range options.Theme.Partials {
		if _, known := paths[key]; known && strings.TrimSpace(path) != "" {
			paths[key] = path
		}
	}
	return paths
}
