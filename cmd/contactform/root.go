package main

import (
	"context"
	"fmt"
	"io"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-contactform"
	"github.com/goliatone/go-contactform/internal/config"
	"github.com/goliatone/go-contactform/pkg/openapi"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/renderers/tui"
	"github.com/goliatone/go-contactform/pkg/renderers/vanilla"
)

// app carries what the subcommands share once the root has loaded config.
type app struct {
	configPath   string
	envFile      string
	contractPath string
	logLevel     string

	cfg    config.Config
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer

	// promptDriver replaces the survey driver when set (tests).
	promptDriver tui.PromptDriver
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return newApp(stdout, stderr).rootCmd()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, logger: zap.NewNop()}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "contactform",
		Short:         "Serve, render and prompt the contact form",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, config.WithEnvFile(a.envFile))
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			logger, err := newLogger(cfg.Log, a.stderr)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file with CONTACTFORM_* overrides")
	flags.StringVar(&a.contractPath, "contract", "", "OpenAPI contract file (embedded contract if empty)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(
		a.serveCmd(),
		a.renderCmd(),
		a.promptCmd(),
		a.openapiCmd(),
	)
	return cmd
}

func newLogger(cfg config.LogConfig, sink io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encoderCfg)
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(sink), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}

func (a *app) contractOptions() []openapi.Option {
	if a.contractPath == "" {
		return nil
	}
	return []openapi.Option{openapi.WithFile(a.contractPath)}
}

func (a *app) generator(ctx context.Context, vanillaOpts []vanilla.Option, tuiOpts []tui.Option) (*contactform.Generator, error) {
	if a.cfg.Render.TemplatesDir != "" {
		vanillaOpts = append(vanillaOpts, vanilla.WithTemplatesDir(a.cfg.Render.TemplatesDir))
	}
	if a.promptDriver != nil {
		tuiOpts = append(tuiOpts, tui.WithPromptDriver(a.promptDriver))
	}
	return contactform.New(ctx, contactform.Options{
		Contract: a.contractOptions(),
		Vanilla:  vanillaOpts,
		TUI:      tuiOpts,
	})
}

// themeConfig resolves the configured theme, or nil when none is set.
func (a *app) themeConfig() (*theme.RendererConfig, error) {
	manifest := a.cfg.Render.Theme.Manifest()
	if manifest == nil {
		return nil, nil
	}
	selection, err := render.NewManifestSelector(a.cfg.Render.Theme.Variant, manifest).Select("", "")
	if err != nil {
		return nil, err
	}
	return render.ResolveTheme(selection), nil
}
