package openapi

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	internalmodel "github.com/goliatone/go-contactform/internal/model"
	"github.com/goliatone/go-contactform/pkg/model"
)

// SubmitOperationID identifies the contact submit operation in the contract.
const SubmitOperationID = "submitContact"

//go:embed contact.yaml
var embeddedContract []byte

// Raw returns a copy of the embedded contract document.
func Raw() []byte {
	return append([]byte(nil), embeddedContract...)
}

// Option configures Load.
type Option func(*options)

type options struct {
	data        []byte
	path        string
	operationID string
	labeler     func(string) string
}

// WithData loads the contract from raw JSON or YAML instead of the embedded
// document.
func WithData(raw []byte) Option {
	return func(o *options) {
		if len(raw) > 0 {
			o.data = raw
		}
	}
}

// WithFile loads the contract from a file on disk.
func WithFile(path string) Option {
	return func(o *options) {
		o.path = strings.TrimSpace(path)
	}
}

// WithOperationID selects a different operation to build the form from.
func WithOperationID(id string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			o.operationID = trimmed
		}
	}
}

// WithLabeler overrides the label derived for fields without an x-contactform
// label.
func WithLabeler(fn func(string) string) Option {
	return func(o *options) {
		o.labeler = fn
	}
}

// Contract is a loaded and validated document plus the form built from it.
type Contract struct {
	Document *openapi3.T
	Form     model.FormModel
}

// Load reads, validates and converts the contract.
func Load(ctx context.Context, opts ...Option) (*Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := options{data: embeddedContract, operationID: SubmitOperationID}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.path != "" {
		data, err := os.ReadFile(cfg.path)
		if err != nil {
			return nil, fmt.Errorf("openapi: read contract: %w", err)
		}
		cfg.data = data
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(cfg.data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load contract: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate contract: %w", err)
	}

	op, err := findOperation(doc, cfg.operationID)
	if err != nil {
		return nil, err
	}

	form, err := internalmodel.New(internalmodel.Options{Labeler: cfg.labeler}).Build(op)
	if err != nil {
		return nil, fmt.Errorf("openapi: build form: %w", err)
	}
	return &Contract{Document: doc, Form: form}, nil
}

// MarshalJSON renders the contract document as JSON.
func (c *Contract) MarshalJSON() ([]byte, error) {
	if c == nil || c.Document == nil {
		return nil, errors.New("openapi: contract is not loaded")
	}
	return c.Document.MarshalJSON()
}

// SubmissionSchema returns the request body schema of the submit operation.
func (c *Contract) SubmissionSchema() (*openapi3.Schema, error) {
	if c == nil || c.Document == nil {
		return nil, errors.New("openapi: contract is not loaded")
	}
	op, err := findOperation(c.Document, c.Form.OperationID)
	if err != nil {
		return nil, err
	}
	return op.Body, nil
}

func findOperation(doc *openapi3.T, operationID string) (internalmodel.Operation, error) {
	if doc.Paths == nil {
		return internalmodel.Operation{}, errors.New("openapi: contract does not contain any paths")
	}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if operation == nil || operation.OperationID != operationID {
				continue
			}
			body, err := requestSchema(operation.RequestBody)
			if err != nil {
				return internalmodel.Operation{}, fmt.Errorf("openapi: operation %q: %w", operationID, err)
			}
			return internalmodel.Operation{
				ID:          operation.OperationID,
				Method:      method,
				Path:        path,
				Summary:     operation.Summary,
				Description: operation.Description,
				Body:        body,
				Extensions:  operation.Extensions,
			}, nil
		}
	}
	return internalmodel.Operation{}, fmt.Errorf("openapi: operation %q not found", operationID)
}

func requestSchema(ref *openapi3.RequestBodyRef) (*openapi3.Schema, error) {
	if ref == nil || ref.Value == nil {
		return nil, errors.New("request body is missing")
	}
	content := ref.Value.Content
	for _, mediaType := range []string{"application/x-www-form-urlencoded", "application/json"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value, nil
		}
	}
	for _, mt := range content {
		if mt != nil && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value, nil
		}
	}
	return nil, errors.New("request body has no schema")
}
