package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-contactform"
	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/renderers/vanilla"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		sets       []string
		submit     bool
		errorsFile string
		action     string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the HTML form for the given values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			c := contact.New()
			if err := applySets(c, sets); err != nil {
				return err
			}
			if submit {
				c.Submit()
			}

			gen, err := a.generator(ctx, []vanilla.Option{vanilla.WithDefaultStyles()}, nil)
			if err != nil {
				return err
			}

			opts := render.OptionsFromState(c.State())
			opts.Action = action
			if errorsFile != "" {
				mapping, err := loadErrorPayload(gen, errorsFile)
				if err != nil {
					return err
				}
				opts.Errors = mergeFieldErrors(opts.Errors, mapping.Fields)
				opts.FormErrors = render.MergeFormErrors(opts.FormErrors, mapping.Form...)
			}
			themeCfg, err := a.themeConfig()
			if err != nil {
				return err
			}
			opts.Theme = themeCfg

			out, _, err := gen.Generate(ctx, contactform.RendererHTML, opts)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, out)
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVar(&sets, "set", nil, "field value as name=value (repeatable)")
	flags.BoolVar(&submit, "submit", false, "submit after applying the values")
	flags.StringVar(&errorsFile, "errors", "", "JSON file of server errors keyed by field path")
	flags.StringVar(&action, "action", "", "form action URL")
	flags.StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func applySets(c *contact.Controller, sets []string) error {
	values, err := parseSets(sets)
	if err != nil {
		return err
	}
	for _, field := range contact.Fields() {
		value, ok := values[string(field)]
		if !ok {
			continue
		}
		if err := c.SetField(field, value); err != nil {
			return err
		}
	}
	return nil
}

func parseSets(sets []string) (map[string]string, error) {
	values := make(map[string]string, len(sets))
	for _, raw := range sets {
		name, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected name=value", raw)
		}
		field, known := contact.ParseField(strings.TrimSpace(name))
		if !known {
			return nil, fmt.Errorf("--set %q: %w", name, contact.ErrUnknownField)
		}
		values[string(field)] = value
	}
	return values, nil
}

func loadErrorPayload(gen *contactform.Generator, path string) (render.ErrorMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return render.ErrorMapping{}, fmt.Errorf("read errors file: %w", err)
	}
	var payload map[string][]string
	if err := json.Unmarshal(data, &payload); err != nil {
		return render.ErrorMapping{}, fmt.Errorf("decode errors file %s: %w", path, err)
	}
	return render.MapErrorPayload(gen.Contract().Form, payload), nil
}

func mergeFieldErrors(base, extra map[string][]string) map[string][]string {
	if len(extra) == 0 {
		return base
	}
	merged := make(map[string][]string, len(base)+len(extra))
	for name, messages := range base {
		merged[name] = append([]string(nil), messages...)
	}
	for name, messages := range extra {
		merged[name] = render.MergeFormErrors(merged[name], messages...)
	}
	return merged
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
