package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"

	"github.com/roach88/driftbench/internal/locator"
)

// VersionHeader carries the DriftState version used to render a response.
const VersionHeader = "X-Locator-Map-Version"

// Server is the demo storefront.
type Server struct {
	logger   *slog.Logger
	maps     *locator.RenameMaps
	fsys     fs.FS
	reload   bool
	ids      IDGenerator
	renderer *Renderer
	sessions *SessionStore
	policy   *bluemonday.Policy
	router   chi.Router

	mu    sync.RWMutex
	drift locator.DriftState
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRenameMaps sets the rename maps used for render-time drift.
func WithRenameMaps(m *locator.RenameMaps) Option {
	return func(s *Server) { s.maps = m }
}

// WithTemplates serves templates from fsys. With reload set they are
// re-parsed on every request.
func WithTemplates(fsys fs.FS, reload bool) Option {
	return func(s *Server) {
		s.fsys = fsys
		s.reload = reload
	}
}

// WithDrift sets the initial drift state.
func WithDrift(d locator.DriftState) Option {
	return func(s *Server) { s.drift = d }
}

// WithIDGenerator sets the session ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Server) { s.ids = g }
}

// New builds a Server. Templates are parsed eagerly so a broken template
// directory fails here rather than on the first request.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		maps:   locator.DefaultRenameMaps(),
		fsys:   DefaultTemplates(),
		ids:    UUIDv7Generator{},
		policy: bluemonday.StrictPolicy(),
		drift:  locator.NewDriftState(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.checkDrift(s.drift); err != nil {
		return nil, err
	}

	r, err := NewRenderer(s.fsys, s.reload, s.maps)
	if err != nil {
		return nil, err
	}
	s.renderer = r
	s.sessions = NewSessionStore(s.ids)
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/forgot", s.handleForgot)
	r.Post("/logout", s.handleLogout)
	r.Get("/healthz", s.handleHealth)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", s.handleCart)
		r.Post("/items/{id}/remove", s.handleRemoveItem)
		r.Post("/checkout", s.handleCheckout)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Drift returns the current drift state.
func (s *Server) Drift() locator.DriftState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drift
}

// SetDrift replaces the drift state. Every page in d must have a rename map.
func (s *Server) SetDrift(d locator.DriftState) error {
	if err := s.checkDrift(d); err != nil {
		return err
	}
	s.mu.Lock()
	s.drift = d
	s.mu.Unlock()
	s.logger.Info("drift state changed", "version", d.Version(), "state", d.String())
	return nil
}

// ApplyDrift sets one page's direction, bumping the version.
func (s *Server) ApplyDrift(page locator.Page, dir locator.Direction) (locator.DriftState, error) {
	if _, err := s.maps.Map(page); err != nil {
		return locator.DriftState{}, err
	}
	s.mu.Lock()
	s.drift = s.drift.With(page, dir)
	d := s.drift
	s.mu.Unlock()
	s.logger.Info("drift state changed", "version", d.Version(), "state", d.String())
	return d, nil
}

func (s *Server) checkDrift(d locator.DriftState) error {
	for _, p := range d.Pages() {
		if _, err := s.maps.Map(p); err != nil {
			return err
		}
	}
	return nil
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server started", "addr", ln.Addr().String(), "drift", s.Drift().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
