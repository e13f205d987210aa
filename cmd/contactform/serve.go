package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-contactform/internal/server"
	"github.com/goliatone/go-contactform/pkg/openapi"
	"github.com/goliatone/go-contactform/pkg/renderers/vanilla"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the contact form over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			contract, err := openapi.Load(ctx, a.contractOptions()...)
			if err != nil {
				return err
			}
			html, err := vanilla.New(a.pageOptions("/field")...)
			if err != nil {
				return err
			}
			themeCfg, err := a.themeConfig()
			if err != nil {
				return err
			}

			srv, err := server.New(contract, html,
				server.WithLogger(a.logger.Named("server")),
				server.WithCookie(a.cfg.Server.CookieName, a.cfg.Server.SecureCookie),
				server.WithSessionTTL(a.cfg.Server.SessionTTL),
				server.WithTheme(themeCfg),
			)
			if err != nil {
				return err
			}
			a.logger.Info("starting contact form server",
				zap.String("addr", a.cfg.Server.Addr),
				zap.Duration("session_ttl", a.cfg.Server.SessionTTL),
			)
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr, a.cfg.Server.JanitorInterval, a.cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// pageOptions returns the vanilla options for a served page. An empty
// fieldEndpoint leaves blur validation off.
func (a *app) pageOptions(fieldEndpoint string) []vanilla.Option {
	opts := []vanilla.Option{
		vanilla.WithScript("/assets/" + vanilla.RuntimeScriptName),
	}
	if fieldEndpoint != "" {
		opts = append(opts, vanilla.WithFieldEndpoint(fieldEndpoint))
	}
	if a.cfg.Render.DefaultStyles {
		opts = append(opts, vanilla.WithDefaultStyles())
	} else {
		opts = append(opts, vanilla.WithStylesheet("/assets/"+vanilla.StylesheetName))
	}
	if a.cfg.Render.TemplatesDir != "" {
		opts = append(opts, vanilla.WithTemplatesDir(a.cfg.Render.TemplatesDir))
	}
	return opts
}
