package contact

import "strings"

// Field names one of the contact form inputs.
type Field string

const (
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldEmail     Field = "email"
	FieldMessage   Field = "message"
)

// Fields lists the form fields in display order.
func Fields() []Field {
	return []Field{FieldFirstName, FieldLastName, FieldEmail, FieldMessage}
}

// RequiredFields lists the fields checked by Submit.
func RequiredFields() []Field {
	return []Field{FieldFirstName, FieldLastName, FieldEmail}
}

// ParseField resolves a raw field name. Matching is exact apart from
// surrounding whitespace.
func ParseField(name string) (Field, bool) {
	candidate := Field(strings.TrimSpace(name))
	for _, field := range Fields() {
		if field == candidate {
			return field, true
		}
	}
	return "", false
}

// Values carries the four field values.
type Values struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Message   string `json:"message"`
}

// Get returns the value of field. Unknown fields read as "".
func (v Values) Get(field Field) string {
	switch field {
	case FieldFirstName:
		return v.FirstName
	case FieldLastName:
		return v.LastName
	case FieldEmail:
		return v.Email
	case FieldMessage:
		return v.Message
	default:
		return ""
	}
}

func (v *Values) set(field Field, value string) bool {
	switch field {
	case FieldFirstName:
		v.FirstName = value
	case FieldLastName:
		v.LastName = value
	case FieldEmail:
		v.Email = value
	case FieldMessage:
		v.Message = value
	default:
		return false
	}
	return true
}

// Map returns the values keyed by field name.
func (v Values) Map() map[string]string {
	out := make(map[string]string, 4)
	for _, field := range Fields() {
		out[string(field)] = v.Get(field)
	}
	return out
}

// Errors maps a field to its current validation message. A missing key means
// the field has no error.
type Errors map[Field]string

// Clone returns an independent copy.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for field, msg := range e {
		out[field] = msg
	}
	return out
}

// Strings returns the errors keyed by plain field name.
func (e Errors) Strings() map[string]string {
	if len(e) == 0 {
		return nil
	}
	out := make(map[string]string, len(e))
	for field, msg := range e {
		out[string(field)] = msg
	}
	return out
}

// Phase is the observable controller state.
type Phase string

const (
	PhaseEditing   Phase = "editing"
	PhaseSubmitted Phase = "submitted"
)

// State is a copy of the controller's form state.
type State struct {
	Values    Values  `json:"values"`
	Errors    Errors  `json:"errors,omitempty"`
	Submitted *Values `json:"submitted,omitempty"`
}

// Phase derives the state machine position from the snapshot.
func (s State) Phase() Phase {
	if s.Submitted != nil {
		return PhaseSubmitted
	}
	return PhaseEditing
}

// HasMessage reports whether the submitted snapshot carries a message.
func (s State) HasMessage() bool {
	return s.Submitted != nil && s.Submitted.Message != ""
}

func (s State) clone() State {
	out := State{Values: s.Values, Errors: s.Errors.Clone()}
	if s.Submitted != nil {
		snapshot := *s.Submitted
		out.Submitted = &snapshot
	}
	return out
}
