// Package openapi carries the contact form contract: an embedded OpenAPI
// document describing the submit endpoint. The document is loaded and
// validated with kin-openapi and converted into the model.FormModel every
// renderer consumes, so labels, ordering and widgets live in one place.
package openapi
