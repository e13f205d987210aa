package config

import (
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Manifest turns the inline theme settings into a go-theme manifest. It
// returns nil when no theme is named.
func (t ThemeConfig) Manifest() *theme.Manifest {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return nil
	}
	manifest := &theme.Manifest{
		Name:    name,
		Version: "local",
		Tokens:  copyTokens(t.Tokens),
	}
	if len(t.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(t.Variants))
		for variant, tokens := range t.Variants {
			manifest.Variants[variant] = theme.Variant{Tokens: copyTokens(tokens)}
		}
	}
	return manifest
}

func copyTokens(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
