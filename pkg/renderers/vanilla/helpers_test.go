package vanilla_test

import (
	"errors"
	"io"
	"io/fs"
)

type stubTemplateRenderer struct {
	renderTemplateFunc func(name string, data any, out ...io.Writer) (string, error)
	calls              int
}

func (s *stubTemplateRenderer) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	s.calls++
	if s.renderTemplateFunc != nil {
		return s.renderTemplateFunc(name, data, out...)
	}
	return "", nil
}

func (s *stubTemplateRenderer) RenderString(string, any, ...io.Writer) (string, error) {
	return "", nil
}

// layeredFS serves theme overrides first and falls back to the embedded
// bundle.
type layeredFS struct {
	primary  fs.FS
	fallback fs.FS
}

func (l layeredFS) Open(name string) (fs.File, error) {
	f, err := l.primary.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return l.fallback.Open(name)
}
