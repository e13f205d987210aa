package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const extensionNamespace = "x-contactform"

var (
	errOperationIDMissing   = errors.New("model builder: operation id is required")
	errOperationPathMissing = errors.New("model builder: operation path is required")
	errRequestBodyMissing   = errors.New("model builder: request body schema is required")
)

// Operation is the slice of an OpenAPI operation the builder needs.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	Body        *openapi3.Schema
	Extensions  map[string]any
}

// Options configures the Builder.
type Options struct {
	Labeler func(string) string
}

// Builder converts OpenAPI request bodies into form models.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	if options.Labeler == nil {
		options.Labeler = DefaultLabeler
	}
	return &Builder{opts: options}
}

// Build transforms an operation into a FormModel. Fields come from the
// top-level properties of the request body and are ordered by their
// x-contactform order hint, falling back to the property name.
func (b *Builder) Build(op Operation) (FormModel, error) {
	if strings.TrimSpace(op.ID) == "" {
		return FormModel{}, errOperationIDMissing
	}
	if strings.TrimSpace(op.Path) == "" {
		return FormModel{}, errOperationPathMissing
	}
	if op.Body == nil {
		return FormModel{}, errRequestBodyMissing
	}

	method := strings.ToUpper(strings.TrimSpace(op.Method))
	if method == "" {
		method = "POST"
	}

	form := FormModel{
		OperationID: op.ID,
		Endpoint:    op.Path,
		Method:      method,
		Title:       op.Summary,
		Description: op.Description,
	}

	formExt := extensionMap(op.Extensions)
	if title := stringValue(formExt["title"]); title != "" {
		form.Title = title
	}
	form.SubmitLabel = stringValue(formExt["submitLabel"])
	if form.SubmitLabel == "" {
		form.SubmitLabel = "Submit"
	}

	required := make(map[string]struct{}, len(op.Body.Required))
	for _, name := range op.Body.Required {
		required[name] = struct{}{}
	}

	for name, ref := range op.Body.Properties {
		if ref == nil || ref.Value == nil {
			return FormModel{}, fmt.Errorf("model builder: property %q has no resolved schema", name)
		}
		_, isRequired := required[name]
		form.Fields = append(form.Fields, b.fieldFromSchema(name, ref.Value, isRequired))
	}

	sort.SliceStable(form.Fields, func(i, j int) bool {
		left, right := form.Fields[i], form.Fields[j]
		if left.Order != right.Order {
			return left.Order < right.Order
		}
		return left.Name < right.Name
	})

	return form, nil
}

func (b *Builder) fieldFromSchema(name string, schema *openapi3.Schema, required bool) Field {
	ext := extensionMap(schema.Extensions)

	field := Field{
		Name:        name,
		Type:        FieldTypeText,
		Required:    required,
		Label:       stringValue(ext["label"]),
		Placeholder: stringValue(ext["placeholder"]),
		Description: schema.Description,
		Order:       intValue(ext["order"]),
	}
	if field.Label == "" {
		field.Label = b.opts.Labeler(name)
	}

	switch {
	case stringValue(ext["widget"]) == "textarea":
		field.Type = FieldTypeTextarea
	case schema.Format == "email":
		field.Type = FieldTypeEmail
	}

	if required {
		field.Validations = append(field.Validations, ValidationRule{Kind: ValidationRuleRequired})
	}
	if schema.MinLength > 0 {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMinLength,
			Params: map[string]string{"value": strconv.FormatUint(schema.MinLength, 10)},
		})
	}
	if schema.Format != "" {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleFormat,
			Params: map[string]string{"format": schema.Format},
		})
	}

	for key, value := range ext {
		switch key {
		case "label", "placeholder", "order", "widget":
			continue
		}
		if str := stringValue(value); str != "" {
			if field.Metadata == nil {
				field.Metadata = make(map[string]string)
			}
			field.Metadata[key] = str
		}
	}

	return field
}

func extensionMap(extensions map[string]any) map[string]any {
	raw, ok := extensions[extensionNamespace]
	if !ok || raw == nil {
		return nil
	}
	switch typed := raw.(type) {
	case map[string]any:
		return typed
	case json.RawMessage:
		var out map[string]any
		if err := json.Unmarshal(typed, &out); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func intValue(value any) int {
	switch typed := value.(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case json.Number:
		n, _ := typed.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(typed))
		return n
	default:
		return 0
	}
}
