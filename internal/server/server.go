package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"slackistrano/internal/config"
	"slackistrano/internal/logging"
	"slackistrano/internal/messaging"
	"slackistrano/internal/notifications"
)

const (
	maxRequestBody  = 64 << 10
	shutdownTimeout = 5 * time.Second
	// writeGrace covers encoding the response once every post has returned.
	writeGrace = 15 * time.Second
)

// Server receives lifecycle events and forwards them to Slack.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	client *http.Client
	router chi.Router
	now    func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithHTTPClient overrides the client used for outbound Slack requests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) {
		if client != nil {
			s.client = client
		}
	}
}

// WithClock overrides the time source used for deploy timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a server for cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "server"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		if cfg.HTTP.InsecureSkipVerify {
			s.logger.Warn("TLS certificate verification disabled for Slack requests",
				logging.String("setting", "http.insecure_skip_verify"))
		}
		s.client = notifications.NewHTTPClient(cfg.RequestTimeout(), cfg.HTTP.InsecureSkipVerify)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(correlationMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(cfg.Server.Token))
		r.Post("/events/{event}", s.handleEvent)
	})
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler serving the routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured bind address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Server.Bind)
	if bind == "" {
		return errors.New("server bind address is empty")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", bind, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeBudget(s.cfg.RequestTimeout(), 1),
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("hook receiver listening", logging.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("hook receiver stopped")
	return nil
}

func (s *Server) dispatcherFor(deploy *messaging.DeployContext, logger *slog.Logger) (*notifications.Dispatcher, error) {
	provider, err := s.cfg.NewProvider(deploy)
	if err != nil {
		return nil, err
	}
	return notifications.NewDispatcher(provider,
		notifications.WithLogger(logger),
		notifications.WithDryRun(s.cfg.Deploy.DryRun),
		notifications.WithHTTPClient(s.client),
	), nil
}
