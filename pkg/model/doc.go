// Package model defines the typed form model consumed by renderers. Builders
// reside in internal/model but return the types defined here. Validation rules
// expose canonical identifiers (required, minLength, format) with string
// parameters so renderers can map them onto HTML attributes without parsing
// the OpenAPI contract again. Schema extensions under the `x-contactform`
// namespace provide labels, placeholders, ordering and the `widget` hint;
// anything else lands in Field.Metadata.
package model
