package contact

import (
	"github.com/goliatone/go-contactform/pkg/validation"
)

// Observer receives a copy of the state after every operation.
type Observer func(State)

// Option configures a Controller.
type Option func(*Controller)

// WithValidator replaces the default rule table.
func WithValidator(v *validation.Validator) Option {
	return func(c *Controller) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithObserver subscribes fn from construction onwards.
func WithObserver(fn Observer) Option {
	return func(c *Controller) {
		if fn != nil {
			c.subscribe(fn)
		}
	}
}

// Controller holds the state of one contact form instance. It is not safe for
// concurrent use; callers sharing a controller must serialize access.
type Controller struct {
	state     State
	validator *validation.Validator

	observers map[int]Observer
	nextID    int
}

// New returns a controller with empty fields, no errors and no snapshot.
func New(options ...Option) *Controller {
	c := &Controller{
		state:     State{Errors: make(Errors)},
		observers: make(map[int]Observer),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.validator == nil {
		c.validator = validation.New()
	}
	return c
}

// SetField stores value and re-validates that field only, adding, updating or
// removing its error entry. The submitted snapshot is never touched.
func (c *Controller) SetField(field Field, value string) error {
	if !c.state.Values.set(field, value) {
		return ErrUnknownField
	}
	c.validateField(field)
	c.notify()
	return nil
}

// Submit validates every required field. On failure each failing field gets
// its message and the snapshot is left as it was. On success the snapshot is
// replaced with the current values and all errors are cleared. It reports
// whether the submission was accepted.
func (c *Controller) Submit() bool {
	failed := make(Errors)
	for _, field := range RequiredFields() {
		if msg, ok := c.validator.Check(string(field), c.state.Values.Get(field)); !ok {
			failed[field] = msg
		}
	}

	if len(failed) > 0 {
		for _, field := range RequiredFields() {
			if msg, ok := failed[field]; ok {
				c.state.Errors[field] = msg
			} else {
				delete(c.state.Errors, field)
			}
		}
		c.notify()
		return false
	}

	snapshot := c.state.Values
	c.state.Submitted = &snapshot
	c.state.Errors = make(Errors)
	c.notify()
	return true
}

// State returns a copy of the current form state.
func (c *Controller) State() State {
	return c.state.clone()
}

// Values returns the live field values.
func (c *Controller) Values() Values {
	return c.state.Values
}

// Errors returns a copy of the current errors.
func (c *Controller) Errors() Errors {
	return c.state.Errors.Clone()
}

// Submitted returns the snapshot captured by the last successful submit.
func (c *Controller) Submitted() (Values, bool) {
	if c.state.Submitted == nil {
		return Values{}, false
	}
	return *c.state.Submitted, true
}

// Phase reports whether the controller is still editing or has submitted.
func (c *Controller) Phase() Phase {
	return c.state.Phase()
}

// Subscribe registers fn to receive a copy of the state after every
// operation. Calling the returned func removes it.
func (c *Controller) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	id := c.subscribe(fn)
	return func() {
		delete(c.observers, id)
	}
}

func (c *Controller) subscribe(fn Observer) int {
	c.nextID++
	c.observers[c.nextID] = fn
	return c.nextID
}

func (c *Controller) validateField(field Field) {
	msg, ok := c.validator.Check(string(field), c.state.Values.Get(field))
	if ok {
		delete(c.state.Errors, field)
		return
	}
	c.state.Errors[field] = msg
}

func (c *Controller) notify() {
	if len(c.observers) == 0 {
		return
	}
	for id := 1; id <= c.nextID; id++ {
		if fn, ok := c.observers[id]; ok {
			fn(c.state.clone())
		}
	}
}
