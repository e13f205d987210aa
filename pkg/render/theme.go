package render

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Partial keys renderers resolve through the theme. Values are template paths
// relative to the renderer's template bundle.
const (
	PartialInput    = "forms.input"
	PartialTextarea = "forms.textarea"
	PartialError    = "forms.error"
	PartialDisplay  = "forms.display"
)

// DefaultPartials returns the built-in template for every partial key.
func DefaultPartials() map[string]string {
	return map[string]string{
		PartialInput:    "templates/components/input.tmpl",
		PartialTextarea: "templates/components/textarea.tmpl",
		PartialError:    "templates/components/error.tmpl",
		PartialDisplay:  "templates/components/display.tmpl",
	}
}

// ThemeSelector resolves a theme/variant pair into a selection. It matches the
// go-theme selector contract so registries from that package plug in directly.
type ThemeSelector interface {
	Select(name, variant string, opts ...theme.QueryOption) (*theme.Selection, error)
}

// ManifestSelector is a ThemeSelector over an in-memory set of manifests.
type ManifestSelector struct {
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

// NewManifestSelector indexes manifests by name. The first manifest becomes
// the default theme.
func NewManifestSelector(defaultVariant string, manifests ...*theme.Manifest) *ManifestSelector {
	s := &ManifestSelector{
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	for _, manifest := range manifests {
		if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
			continue
		}
		if s.defaultTheme == "" {
			s.defaultTheme = manifest.Name
		}
		s.manifests[manifest.Name] = manifest
	}
	return s
}

// Select implements ThemeSelector. Empty arguments fall back to the defaults.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTheme
	}
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = s.defaultVariant
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("render: theme %q not found", name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("render: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// ResolveTheme flattens a selection into the renderer config: variant tokens,
// templates and assets override the manifest's, partials fall back to
// DefaultPartials, and every token becomes a "--token" CSS variable.
func ResolveTheme(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest

	tokens := copyStrings(manifest.Tokens)
	partials := DefaultPartials()
	for key, path := range manifest.Templates {
		partials[key] = path
	}
	prefix := strings.TrimSpace(manifest.Assets.Prefix)
	files := copyStrings(manifest.Assets.Files)

	if variant, ok := manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
		for key, path := range variant.Templates {
			partials[key] = path
		}
		if p := strings.TrimSpace(variant.Assets.Prefix); p != "" {
			prefix = p
		}
		for key, file := range variant.Assets.Files {
			files[key] = file
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if prefix == "" {
				return file
			}
			return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
		},
	}
}

// CSSVarsStyle renders CSS variables as a :root block with sorted keys.
// Entries that could break out of the declaration are dropped.
func CSSVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		if strings.ContainsAny(key+vars[key], "<>{};") {
			continue
		}
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
