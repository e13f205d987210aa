package validation

import (
	"fmt"
	"strings"
)

// Rule binds a validator tag chain to a field along with the message shown for
// each tag. Tags are evaluated left to right and the first failure wins, so
// emptiness checks belong at the front of the chain.
type Rule struct {
	Field    string
	Tags     string
	Messages map[string]string
}

// Message returns the text for a failed tag, falling back to a generic
// "<field> is invalid." when the rule does not declare one.
func (r Rule) Message(tag string) string {
	if msg := strings.TrimSpace(r.Messages[tag]); msg != "" {
		return msg
	}
	return fmt.Sprintf("%s is invalid.", r.Field)
}

// DefaultRules returns the contact form rule table. The message field has no
// rule and therefore never produces an error.
func DefaultRules() []Rule {
	return []Rule{
		{
			Field: "firstName",
			Tags:  TagPresent + "," + TagMinChars + "=5",
			Messages: map[string]string{
				TagPresent:  "firstName is a required field.",
				TagMinChars: "firstName must have at least 5 characters.",
			},
		},
		{
			Field: "lastName",
			Tags:  TagPresent,
			Messages: map[string]string{
				TagPresent: "lastName is a required field.",
			},
		},
		{
			Field: "email",
			Tags:  TagPresent + "," + TagMailbox,
			Messages: map[string]string{
				TagPresent: "email is a required field.",
				TagMailbox: "email must be a valid email address.",
			},
		},
	}
}

// Validator evaluates a fixed rule set. It holds no per-value state and is
// safe to share.
type Validator struct {
	order []string
	rules map[string]Rule
}

// New builds a Validator from rules. With no rules it uses DefaultRules. A
// later rule for the same field replaces the earlier one.
func New(rules ...Rule) *Validator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	v := &Validator{rules: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		name := strings.TrimSpace(rule.Field)
		if name == "" {
			continue
		}
		rule.Field = name
		if _, exists := v.rules[name]; !exists {
			v.order = append(v.order, name)
		}
		v.rules[name] = rule
	}
	return v
}

// Check validates a single field value. Fields without a rule always pass.
// The returned message is empty when ok is true.
func (v *Validator) Check(field, value string) (message string, ok bool) {
	rule, exists := v.rules[field]
	if !exists {
		return "", true
	}
	tag, err := failedTag(value, rule.Tags)
	if err != nil {
		return fmt.Sprintf("%s could not be validated: %v", field, err), false
	}
	if tag == "" {
		return "", true
	}
	return rule.Message(tag), false
}

// Validated returns the names of the fields that carry a rule, in rule order.
func (v *Validator) Validated() []string {
	return append([]string(nil), v.order...)
}

// HasRule reports whether field is validated at all.
func (v *Validator) HasRule(field string) bool {
	_, ok := v.rules[field]
	return ok
}
