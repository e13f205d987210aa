package tui

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/testsupport"
	"github.com/goliatone/go-contactform/pkg/validation"
)

type stubDriver struct {
	inputs       []string
	textAreas    []string
	infoMessages []string
	defaults     []string
	inputPos     int
	textPos      int
}

func (s *stubDriver) Ask(_ context.Context, q Question) (string, error) {
	s.defaults = append(s.defaults, q.Default)
	if q.Multiline {
		if s.textPos >= len(s.textAreas) {
			return "", errors.New("no textarea scripted")
		}
		val := s.textAreas[s.textPos]
		s.textPos++
		return val, nil
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Notify(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func TestRender_ValidAnswersJSON(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Isaac", "Malin", "Isaac@email.com"},
		textAreas: []string{"Hi"},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(context.Background(), testsupport.ContactForm(t), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var got contact.Values
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	want := contact.Values{FirstName: "Isaac", LastName: "Malin", Email: "Isaac@email.com", Message: "Hi"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submitted mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infoMessages) != 0 {
		t.Fatalf("expected no error messages, got %v", driver.infoMessages)
	}
	if r.ContentType() != "application/json" {
		t.Fatalf("unexpected content type %q", r.ContentType())
	}
}

func TestRender_RepromptsInvalidField(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ed", "Edward", "Burke", "not-an-email", "ed@example.com"},
		textAreas: []string{""},
	}
	r, err := New(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	if _, err := r.Render(context.Background(), testsupport.ContactForm(t), render.RenderOptions{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := []string{
		"! Error: firstName must have at least 5 characters.",
		"! Error: email must be a valid email address.",
	}
	if diff := cmp.Diff(want, driver.infoMessages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	// The rejected answer becomes the default of the retry.
	if driver.defaults[1] != "Ed" {
		t.Fatalf("expected retry default %q, got %q", "Ed", driver.defaults[1])
	}
}

func TestRender_GivesUpAfterMaxAttempts(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"", "", "Malin", "Isaac@email.com"},
		textAreas: []string{""},
	}
	r, err := New(WithPromptDriver(driver), WithMaxAttempts(2))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	_, err = r.Render(context.Background(), testsupport.ContactForm(t), render.RenderOptions{})
	var verr *contact.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := contact.Errors{contact.FieldFirstName: "firstName is a required field."}
	if diff := cmp.Diff(want, verr.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if driver.inputPos != 4 {
		t.Fatalf("expected 4 inputs consumed, got %d", driver.inputPos)
	}
}

func TestRender_OutputFormats(t *testing.T) {
	answers := func() *stubDriver {
		return &stubDriver{
			inputs:    []string{"Isaac", "Malin", "Isaac@email.com"},
			textAreas: []string{""},
		}
	}

	r, err := New(WithPromptDriver(answers()), WithOutputFormat(OutputFormatFormURLEncoded))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(context.Background(), testsupport.ContactForm(t), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render form: %v", err)
	}
	parsed, err := url.ParseQuery(string(out))
	if err != nil {
		t.Fatalf("parse form output: %v", err)
	}
	if parsed.Get("email") != "Isaac@email.com" || parsed.Get("firstName") != "Isaac" {
		t.Fatalf("unexpected form output %q", out)
	}

	r, err = New(WithPromptDriver(answers()), WithOutputFormat(OutputFormatPrettyText))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err = r.Render(context.Background(), testsupport.ContactForm(t), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render pretty: %v", err)
	}
	want := "You Submitted:\nFirst Name: Isaac\nLast Name: Malin\nEmail: Isaac@email.com\n"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(r.ContentType(), "text/plain") {
		t.Fatalf("unexpected content type %q", r.ContentType())
	}
}

func TestRender_PrettyKeepsWhitespaceMessage(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Isaac", "Malin", "Isaac@email.com"},
		textAreas: []string{"   "},
	}
	r, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatPrettyText))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(context.Background(), testsupport.ContactForm(t), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "You Submitted:\nFirst Name: Isaac\nLast Name: Malin\nEmail: Isaac@email.com\nMessage:    \n"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_DefaultsFromOptions(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Isaac", "Malin", "Isaac@email.com"},
		textAreas: []string{"note"},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	opts := render.RenderOptions{Values: map[string]string{"lastName": "Burke", "message": "prefill"}}
	if _, err := r.Render(context.Background(), testsupport.ContactForm(t), opts); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := []string{"", "Burke", "", "prefill"}
	if diff := cmp.Diff(want, driver.defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_ObserverAndValidator(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Al", "B", "a@b.co"},
		textAreas: []string{""},
	}
	relaxed := validation.New(validation.Rule{
		Field:    "firstName",
		Tags:     validation.TagPresent,
		Messages: map[string]string{validation.TagPresent: "first name please"},
	})

	var phases []contact.Phase
	r, err := New(
		WithPromptDriver(driver),
		WithValidator(relaxed),
		WithObserver(func(s contact.State) { phases = append(phases, s.Phase()) }),
	)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(context.Background(), testsupport.ContactForm(t), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), `"firstName":"Al"`) {
		t.Fatalf("relaxed validator should accept short names, got %s", out)
	}
	if len(phases) != 5 || phases[4] != contact.PhaseSubmitted {
		t.Fatalf("expected four edits and a submit, got %v", phases)
	}
}

func TestRender_Errors(t *testing.T) {
	if _, err := New(WithOutputFormat("xml")); err == nil {
		t.Fatalf("expected unknown format error")
	}

	r, err := New(WithPromptDriver(&stubDriver{}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, testsupport.ContactForm(t), render.RenderOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	form := model.FormModel{Fields: []model.Field{{Name: "phone"}}}
	if _, err := r.Render(context.Background(), form, render.RenderOptions{}); !errors.Is(err, contact.ErrUnknownField) {
		t.Fatalf("expected unknown field error, got %v", err)
	}

	if _, err := r.Render(context.Background(), testsupport.ContactForm(t), render.RenderOptions{}); err == nil {
		t.Fatalf("expected driver error to surface")
	}
}
