// Package contact holds the contact form controller: four text fields, the
// per-field validation errors and the snapshot captured by the last successful
// submit. The controller owns its state exclusively and performs no I/O;
// renderers read copies through State or Subscribe and feed input back through
// SetField and Submit.
package contact
