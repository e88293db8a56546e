package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jrmsu/libraryid/pkg/logger"
)

// Config is loaded from HTTP_* variables.
type Config struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStartHook runs h right before the listener starts.
func WithStartHook(h func(*slog.Logger)) Option {
	return func(s *Server) { s.onStart = append(s.onStart, h) }
}

// WithStopHook runs h after a graceful shutdown completes.
func WithStopHook(h func(*slog.Logger)) Option {
	return func(s *Server) { s.onStop = append(s.onStop, h) }
}

// Server runs an http.Server until the context is cancelled or the process
// receives SIGINT/SIGTERM, then drains in-flight requests.
type Server struct {
	cfg     Config
	log     *slog.Logger
	onStart []func(*slog.Logger)
	onStop  []func(*slog.Logger)

	mu   sync.Mutex
	srv  *http.Server
	once sync.Once
}

// New returns a Server. Zero durations in cfg leave the net/http defaults.
func New(cfg Config, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	s := &Server{cfg: cfg, log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks serving handler. A listener failure is wrapped with ErrStart.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
	s.srv = srv
	s.mu.Unlock()

	for _, h := range s.onStart {
		h(s.log)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	var err error
	select {
	case <-ctx.Done():
		_ = s.Shutdown(context.WithoutCancel(ctx))
		err = <-errCh
	case <-sig:
		_ = s.Shutdown(context.WithoutCancel(ctx))
		err = <-errCh
	case err = <-errCh:
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrStart, err)
	}
	return nil
}

// Shutdown drains the server within the configured timeout. Repeated calls
// are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
		for _, h := range s.onStop {
			h(s.log)
		}
	})
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
