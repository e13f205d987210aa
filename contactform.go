// Package contactform is the quick-start entry point: it loads the embedded
// contract, builds the renderers, and renders a controller state by renderer
// name.
package contactform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/openapi"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/renderers/tui"
	"github.com/goliatone/go-contactform/pkg/renderers/vanilla"
)

// Renderer names registered by New.
const (
	RendererHTML = "vanilla"
	RendererTUI  = "tui"
)

// RenderOptions aliases render.RenderOptions for callers that only import the
// root package.
type RenderOptions = render.RenderOptions

// Options configures a Generator.
type Options struct {
	Contract []openapi.Option
	Vanilla  []vanilla.Option
	TUI      []tui.Option
}

// Generator pairs the loaded contract with a renderer registry.
type Generator struct {
	contract *openapi.Contract
	registry *render.Registry
}

// New loads the contract and registers the HTML and terminal renderers.
func New(ctx context.Context, opts Options) (*Generator, error) {
	contract, err := openapi.Load(ctx, opts.Contract...)
	if err != nil {
		return nil, err
	}
	html, err := vanilla.New(opts.Vanilla...)
	if err != nil {
		return nil, err
	}
	term, err := tui.New(opts.TUI...)
	if err != nil {
		return nil, err
	}
	registry, err := render.NewRegistry(html, term)
	if err != nil {
		return nil, err
	}
	return &Generator{contract: contract, registry: registry}, nil
}

// Contract returns the loaded contract.
func (g *Generator) Contract() *openapi.Contract {
	return g.contract
}

// Registry returns the renderer registry so callers can add their own.
func (g *Generator) Registry() *render.Registry {
	return g.registry
}

// Generate renders the contact form with the named renderer. It returns the
// output and its content type.
func (g *Generator) Generate(ctx context.Context, rendererName string, opts RenderOptions) ([]byte, string, error) {
	if g == nil || g.contract == nil {
		return nil, "", errors.New("contactform: generator is not initialised")
	}
	out, contentType, err := g.registry.Render(ctx, rendererName, g.contract.Form, opts)
	if err != nil {
		return nil, "", fmt.Errorf("contactform: generate %s: %w", rendererName, err)
	}
	return out, contentType, nil
}

// GenerateHTML renders state with the embedded templates. It is the simplest
// entry point for callers that just want a page.
func GenerateHTML(ctx context.Context, state contact.State, options ...vanilla.Option) ([]byte, error) {
	g, err := New(ctx, Options{Vanilla: options})
	if err != nil {
		return nil, err
	}
	out, _, err := g.Generate(ctx, RendererHTML, render.OptionsFromState(state))
	return out, err
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can copy
// or layer over them.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// AssetsFS exposes the stylesheet and blur validation script.
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
