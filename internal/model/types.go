package model

// FieldType is the simplified enum for contact form input kinds.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTextarea FieldType = "textarea"
)

const (
	ValidationRuleRequired  = "required"
	ValidationRuleMinLength = "minLength"
	ValidationRuleFormat    = "format"
)

// ValidationRule represents a single constraint declared for a field by the
// form contract. Length limits encode their threshold in Params["value"] and
// format rules keep the declared format in Params["format"].
type ValidationRule struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Field models an individual input inside the contact form. Struct fields are
// annotated so renderers can serialise them directly when needed.
type Field struct {
	Name        string            `json:"name"`
	Type        FieldType         `json:"type"`
	Required    bool              `json:"required"`
	Label       string            `json:"label,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Description string            `json:"description,omitempty"`
	Order       int               `json:"order,omitempty"`
	Validations []ValidationRule  `json:"validations,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Rule returns the first validation rule of the given kind.
func (f Field) Rule(kind string) (ValidationRule, bool) {
	for _, rule := range f.Validations {
		if rule.Kind == kind {
			return rule, true
		}
	}
	return ValidationRule{}, false
}

// FormModel is the top-level representation renderers consume.
type FormModel struct {
	OperationID string            `json:"operationId"`
	Endpoint    string            `json:"endpoint"`
	Method      string            `json:"method"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	SubmitLabel string            `json:"submitLabel,omitempty"`
	Fields      []Field           `json:"fields"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Field looks up a field by name.
func (f FormModel) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}
