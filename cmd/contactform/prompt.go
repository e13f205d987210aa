package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-contactform"
	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/renderers/tui"
)

func (a *app) promptCmd() *cobra.Command {
	var (
		format   string
		attempts int
		sets     []string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill in the contact form interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if format == "" {
				format = a.cfg.TUI.Output
			}
			outputFormat, ok := tui.ParseOutputFormat(format)
			if !ok {
				return fmt.Errorf("unknown output format %q (want json, form or pretty)", format)
			}
			if attempts <= 0 {
				attempts = a.cfg.TUI.MaxAttempts
			}
			defaults, err := parseSets(sets)
			if err != nil {
				return err
			}

			gen, err := a.generator(ctx, nil, []tui.Option{
				tui.WithOutputFormat(outputFormat),
				tui.WithMaxAttempts(attempts),
				tui.WithObserver(func(s contact.State) {
					a.logger.Debug("form state changed",
						zap.String("phase", string(s.Phase())),
						zap.Int("errors", len(s.Errors)),
					)
				}),
			})
			if err != nil {
				return err
			}

			out, _, err := gen.Generate(ctx, contactform.RendererTUI, render.RenderOptions{Values: defaults})
			var verr *contact.ValidationError
			switch {
			case errors.As(err, &verr):
				for _, field := range contact.Fields() {
					if msg, ok := verr.Errors[field]; ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", msg)
					}
				}
				return verr
			case errors.Is(err, tui.ErrAborted):
				a.logger.Info("prompt aborted")
				return nil
			case err != nil:
				return err
			}
			return writeOutput(cmd, output, out)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&format, "format", "", "output format: json, form or pretty (defaults to tui.output)")
	flags.IntVar(&attempts, "attempts", 0, "answers allowed per invalid field (defaults to tui.max_attempts)")
	flags.StringArrayVar(&sets, "set", nil, "prefill a field as name=value (repeatable)")
	flags.StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
