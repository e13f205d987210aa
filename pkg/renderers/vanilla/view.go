package vanilla

import (
	"strings"

	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
)

// View structs travel to pongo2 through JSON, so the json tags are the names
// templates use.

type pageView struct {
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Action        string       `json:"action"`
	Method        string       `json:"method"`
	SubmitLabel   string       `json:"submit_label"`
	Fields        []fieldView  `json:"fields"`
	FormErrors    []string     `json:"form_errors,omitempty"`
	Hidden        []hiddenView `json:"hidden,omitempty"`
	Display       string       `json:"display,omitempty"`
	FieldEndpoint string       `json:"field_endpoint,omitempty"`
	Stylesheets   []string     `json:"stylesheets,omitempty"`
	Scripts       []string     `json:"scripts,omitempty"`
	InlineStyle   string       `json:"inline_style,omitempty"`
	CSSVars       string       `json:"css_vars,omitempty"`
	Theme         string       `json:"theme,omitempty"`
	Variant       string       `json:"variant,omitempty"`
}

type fieldView struct {
	Name        string   `json:"name"`
	ID          string   `json:"id"`
	ErrorsID    string   `json:"errors_id"`
	Label       string   `json:"label"`
	InputType   string   `json:"input_type"`
	Placeholder string   `json:"placeholder,omitempty"`
	Description string   `json:"description,omitempty"`
	Value       string   `json:"value"`
	Required    bool     `json:"required"`
	MinLength   string   `json:"min_length,omitempty"`
	Invalid     bool     `json:"invalid"`
	Messages    []string `json:"messages,omitempty"`
	ErrorsHTML  string   `json:"errors_html,omitempty"`
	Markup      string   `json:"markup,omitempty"`
}

type hiddenView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type displayItem struct {
	TestID string `json:"test_id"`
	Label  string `json:"label"`
	Value  string `json:"value"`
}

func newFieldView(field model.Field, options render.RenderOptions) fieldView {
	view := fieldView{
		Name:        field.Name,
		ID:          controlID(field.Name),
		ErrorsID:    controlID(field.Name) + "-errors",
		Label:       field.Label,
		InputType:   inputType(field.Type),
		Placeholder: field.Placeholder,
		Description: field.Description,
		Value:       options.Values[field.Name],
		Required:    field.Required,
	}
	if view.Label == "" {
		view.Label = field.Name
	}
	if rule, ok := field.Rule(model.ValidationRuleMinLength); ok && rule.Params["value"] != "1" {
		view.MinLength = rule.Params["value"]
	}
	for _, message := range options.Errors[field.Name] {
		if message = strings.TrimSpace(message); message != "" {
			view.Messages = append(view.Messages, message)
		}
	}
	view.Invalid = len(view.Messages) > 0
	return view
}

func controlID(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return "cf-" + trimmed
}

func inputType(t model.FieldType) string {
	switch t {
	case model.FieldTypeEmail:
		return "email"
	case model.FieldTypeTextarea:
		return "textarea"
	default:
		return "text"
	}
}

// displayLabel drops the required marker so the submitted summary reads
// "First Name: ..." rather than "First Name*: ...".
func displayLabel(field model.Field) string {
	label := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(field.Label), "*"))
	if label == "" {
		return field.Name
	}
	return label
}
