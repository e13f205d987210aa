package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/goliatone/go-contactform"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/openapi"
	"github.com/goliatone/go-contactform/pkg/render"
)

const snapshotRendererName = "form-model-snapshot"

type snapshotRenderer struct {
	path string
}

func (r *snapshotRenderer) Name() string {
	return snapshotRendererName
}

func (r *snapshotRenderer) ContentType() string {
	return "application/json"
}

func (r *snapshotRenderer) Render(_ context.Context, form model.FormModel, _ render.RenderOptions) ([]byte, error) {
	payload, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return nil, err
	}
	payload = append(payload, '\n')
	if err := os.WriteFile(r.path, payload, 0o644); err != nil {
		return nil, err
	}
	return payload, nil
}

func main() {
	var (
		contractPath = flag.String("contract", "", "OpenAPI contract path (embedded contract if empty)")
		outputPath   = flag.String("output", "pkg/openapi/testdata/contact_form.json", "output path for the serialized form model")
	)
	flag.Parse()

	ctx := context.Background()

	var contractOpts []openapi.Option
	if *contractPath != "" {
		contractOpts = append(contractOpts, openapi.WithFile(*contractPath))
	}
	gen, err := contactform.New(ctx, contactform.Options{Contract: contractOpts})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load contract: %v\n", err)
		os.Exit(1)
	}
	if err := gen.Registry().Register(&snapshotRenderer{path: *outputPath}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register snapshot renderer: %v\n", err)
		os.Exit(1)
	}

	if _, _, err := gen.Generate(ctx, snapshotRendererName, render.RenderOptions{}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write form model: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("form model written to %s\n", *outputPath)
}
