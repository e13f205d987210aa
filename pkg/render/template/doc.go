// Package template defines the template engine contract used by the HTML
// renderer. The gotemplate subpackage provides the pongo2 implementation.
package template
