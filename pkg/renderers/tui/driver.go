package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Question is one field prompt.
type Question struct {
	Name      string
	Label     string
	Default   string
	Help      string
	Multiline bool
}

// PromptDriver is the terminal seam. Tests script answers through it.
type PromptDriver interface {
	Ask(ctx context.Context, q Question) (string, error)
	Notify(ctx context.Context, msg string) error
}

// SurveyDriver asks questions with survey. Multiline questions open survey's
// multi-line editor.
type SurveyDriver struct {
	in     terminal.FileReader
	out    terminal.FileWriter
	errOut io.Writer
}

// NewSurveyDriver wires survey to the given streams; nil streams fall back to
// the process stdio.
func NewSurveyDriver(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) *SurveyDriver {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &SurveyDriver{in: in, out: out, errOut: errOut}
}

func (d *SurveyDriver) Ask(ctx context.Context, q Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var prompt survey.Prompt = &survey.Input{Message: q.Label, Default: q.Default, Help: q.Help}
	if q.Multiline {
		prompt = &survey.Multiline{Message: q.Label, Default: q.Default, Help: q.Help}
	}

	var answer string
	if err := survey.AskOne(prompt, &answer, survey.WithStdio(d.in, d.out, d.errOut)); err != nil {
		if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", fmt.Errorf("tui: ask %s: %w", q.Name, err)
	}
	return answer, nil
}

func (d *SurveyDriver) Notify(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.errOut, msg)
	return err
}
