package render

import (
	"context"

	"github.com/goliatone/go-contactform/pkg/model"
)

// Renderer converts the contact form model plus the controller state carried
// in RenderOptions into a byte representation (HTML, terminal text, JSON).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error)
}
