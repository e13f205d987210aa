package render

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/goliatone/go-contactform/pkg/model"
)

var (
	// ErrRendererNotFound is returned for names nobody registered.
	ErrRendererNotFound = errors.New("render: renderer not found")
	// ErrRendererExists is returned when a name is registered twice.
	ErrRendererExists = errors.New("render: renderer already registered")
)

// Registry maps renderer names to renderers. Surfaces pick one by name from
// flags or config.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Renderer
}

// NewRegistry registers every renderer in order and stops at the first
// failure.
func NewRegistry(renderers ...Renderer) (*Registry, error) {
	reg := &Registry{byName: make(map[string]Renderer, len(renderers))}
	for _, r := range renderers {
		if err := reg.Register(r); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds renderer under its Name().
func (reg *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return errors.New("render: nil renderer")
	}
	name := renderer.Name()
	if name == "" {
		return errors.New("render: renderer has no name")
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, taken := reg.byName[name]; taken {
		return fmt.Errorf("%w: %s", ErrRendererExists, name)
	}
	reg.byName[name] = renderer
	return nil
}

// Get returns the renderer registered as name.
func (reg *Registry) Get(name string) (Renderer, error) {
	reg.mu.RLock()
	renderer, ok := reg.byName[name]
	reg.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRendererNotFound, name)
	}
	return renderer, nil
}

// Render draws form with the named renderer and reports its content type.
func (reg *Registry) Render(ctx context.Context, name string, form model.FormModel, opts RenderOptions) ([]byte, string, error) {
	renderer, err := reg.Get(name)
	if err != nil {
		return nil, "", err
	}
	out, err := renderer.Render(ctx, form, opts)
	if err != nil {
		return nil, "", err
	}
	return out, renderer.ContentType(), nil
}

// List returns the registered names in order.
func (reg *Registry) List() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return slices.Sorted(maps.Keys(reg.byName))
}
