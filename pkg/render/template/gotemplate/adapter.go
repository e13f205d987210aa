// Package gotemplate runs the HTML renderer's templates on pongo2.
package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-contactform/pkg/render/template"
)

const setName = "contactform"

// Filter is a template filter over plain Go values.
type Filter func(input, param any) (any, error)

var builtinFilters sync.Once

// RegisterFilter installs a filter for every engine in the process. pongo2
// keeps filters globally, so a name can be taken only once.
func RegisterFilter(name string, fn Filter) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("gotemplate: filter name and function are required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q already registered", name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		out, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(out), nil
	})
}

// Option configures an Engine.
type Option func(*settings)

type settings struct {
	sources []fs.FS
	ext     string
	globals map[string]any
}

// WithFS adds a template source. Sources added first win when a name exists
// in more than one.
func WithFS(files fs.FS) Option {
	return func(s *settings) {
		if files != nil {
			s.sources = append(s.sources, files)
		}
	}
}

// WithDir adds a directory on disk as a template source.
func WithDir(dir string) Option {
	return func(s *settings) {
		if dir = strings.TrimSpace(dir); dir != "" {
			s.sources = append(s.sources, os.DirFS(dir))
		}
	}
}

// WithExtension sets the suffix appended to template names that lack it.
func WithExtension(ext string) Option {
	return func(s *settings) {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.ext = ext
	}
}

// WithGlobals makes values visible to every template. Per call data shadows
// them.
func WithGlobals(values map[string]any) Option {
	return func(s *settings) {
		for key, value := range values {
			if s.globals == nil {
				s.globals = make(map[string]any, len(values))
			}
			s.globals[key] = value
		}
	}
}

// Engine is a template.TemplateRenderer backed by a pongo2 template set.
type Engine struct {
	set   *pongo2.TemplateSet
	ext   string
	cache sync.Map // name -> *pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an engine over the configured sources. At least one source is
// required.
func New(options ...Option) (*Engine, error) {
	s := settings{ext: ".tmpl"}
	for _, opt := range options {
		if opt != nil {
			opt(&s)
		}
	}
	if len(s.sources) == 0 {
		return nil, errors.New("gotemplate: no template source configured")
	}

	var err error
	builtinFilters.Do(func() {
		if !pongo2.FilterExists("trim") {
			err = RegisterFilter("trim", trimFilter)
		}
	})
	if err != nil {
		return nil, err
	}

	loaders := make([]pongo2.TemplateLoader, 0, len(s.sources))
	for _, src := range s.sources {
		loaders = append(loaders, pongo2.NewFSLoader(src))
	}
	set := pongo2.NewSet(setName, loaders...)
	if len(s.globals) > 0 {
		globals, err := contextOf(s.globals)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: globals: %w", err)
		}
		set.Globals.Update(globals)
	}
	return &Engine{set: set, ext: s.ext}, nil
}

// RenderTemplate executes the template called name. The extension is added
// when name does not already end with it.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if !strings.HasSuffix(name, e.ext) {
		name += e.ext
	}
	tmpl, err := e.template(name)
	if err != nil {
		return "", err
	}
	result, err := execute(tmpl, data, out)
	if err != nil {
		return "", fmt.Errorf("gotemplate: render %s: %w", name, err)
	}
	return result, nil
}

// RenderString compiles and executes inline template content. Nothing is
// cached.
func (e *Engine) RenderString(content string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("gotemplate: parse inline template: %w", err)
	}
	result, err := execute(tmpl, data, out)
	if err != nil {
		return "", fmt.Errorf("gotemplate: render inline template: %w", err)
	}
	return result, nil
}

func (e *Engine) template(name string) (*pongo2.Template, error) {
	if cached, ok := e.cache.Load(name); ok {
		return cached.(*pongo2.Template), nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %s: %w", name, err)
	}
	actual, _ := e.cache.LoadOrStore(name, tmpl)
	return actual.(*pongo2.Template), nil
}

func execute(tmpl *pongo2.Template, data any, out []io.Writer) (string, error) {
	ctx, err := contextOf(data)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", err
	}
	for _, w := range out {
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// contextOf turns data into a pongo2 context. Everything goes through JSON so
// templates see struct fields under their json names.
func contextOf(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode template data: %w", err)
	}
	var ctx pongo2.Context
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, fmt.Errorf("template data must be an object, got %T", data)
	}
	return ctx, nil
}

func trimFilter(input, _ any) (any, error) {
	s, ok := input.(string)
	if !ok {
		if input == nil {
			return "", nil
		}
		s = fmt.Sprint(input)
	}
	return strings.TrimSpace(s), nil
}
