// Package server exposes the contact form over HTTP. Each browser session
// owns one controller; the JSON API builds a fresh controller per request.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/openapi"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/renderers/vanilla"
	"github.com/goliatone/go-contactform/pkg/validation"
)

const (
	defaultCookieName = "contactform_session"
	defaultSessionTTL = 30 * time.Minute
	maxBodyBytes      = 64 << 10
)

// DefaultShutdownTimeout bounds graceful shutdown when Serve is given a
// non-positive timeout.
const DefaultShutdownTimeout = 10 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCookie sets the session cookie name and its Secure flag.
func WithCookie(name string, secure bool) Option {
	return func(s *Server) {
		if name != "" {
			s.cookieName = name
		}
		s.secureCookie = secure
	}
}

// WithSessionTTL sets how long an idle session survives.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithTheme applies a resolved theme to every rendered page.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(s *Server) {
		s.theme = cfg
	}
}

// WithValidator swaps the rule table of every controller the server creates.
func WithValidator(v *validation.Validator) Option {
	return func(s *Server) {
		s.validator = v
	}
}

// Server wires the contract, the HTML renderer and the session store into an
// http.Handler.
type Server struct {
	contract *openapi.Contract
	renderer render.Renderer
	sessions *SessionStore
	logger   *zap.Logger

	cookieName   string
	secureCookie bool
	sessionTTL   time.Duration
	theme        *theme.RendererConfig
	validator    *validation.Validator

	handler http.Handler
}

// New builds a server. contract supplies the form model; renderer draws it.
func New(contract *openapi.Contract, renderer render.Renderer, opts ...Option) (*Server, error) {
	if contract == nil {
		return nil, errors.New("server: contract is required")
	}
	if renderer == nil {
		return nil, errors.New("server: renderer is required")
	}

	s := &Server{
		contract:   contract,
		renderer:   renderer,
		logger:     zap.NewNop(),
		cookieName: defaultCookieName,
		sessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.sessions = NewSessionStore(s.sessionTTL, s.newController)
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Sessions exposes the store, mainly so callers can run the janitor.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// shutdownTimeout. The session janitor runs for the lifetime of the call.
func (s *Server) ListenAndServe(ctx context.Context, addr string, janitorInterval, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, janitorInterval, shutdownTimeout)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, janitorInterval, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.sessions.RunJanitor(janitorCtx, janitorInterval, func(n int) {
			s.logger.Debug("expired sessions removed", zap.Int("count", n))
		})
	}()
	defer func() {
		stopJanitor()
		wg.Wait()
	}()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		serveErr <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	s.logger.Info("stopped")
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("POST /{$}", s.handleSubmit)
	mux.HandleFunc("POST /field", s.handleField)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /api/contact", s.handleAPISubmit)
	mux.HandleFunc("GET /openapi.json", s.handleOpenAPI)
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(vanilla.AssetsFS())))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return s.logRequests(mux)
}

func (s *Server) newController() *contact.Controller {
	return contact.New(contact.WithValidator(s.validator))
}
