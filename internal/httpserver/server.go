// Package httpserver relays messages from other services to the configured
// robots. Callers authenticate with a bearer token and never see robot
// credentials.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dingtalk/internal/config"
	"dingtalk/internal/metrics"
	"dingtalk/internal/robot"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Resolver returns the client for a robot profile name. An empty name
// selects the default robot.
type Resolver func(name string) (*robot.Client, string, error)

// Options configures an HTTPServer.
type Options struct {
	Tokens   []string
	Version  string
	Resolve  Resolver
	Robots   func() (*config.Config, error) // defaults to config.LoadConfig
	Recorder *metrics.Recorder              // /metrics is disabled when nil
}

// HTTPServer is the relay server.
type HTTPServer struct {
	mux      *http.ServeMux
	tokens   []string
	version  string
	resolve  Resolver
	robots   func() (*config.Config, error)
	recorder *metrics.Recorder
	events   *hub
}

// NewHTTPServer creates the relay and registers its routes.
func NewHTTPServer(opts Options) (*HTTPServer, error) {
	if len(opts.Tokens) == 0 {
		return nil, errors.New("at least one auth token is required")
	}
	if opts.Resolve == nil {
		return nil, errors.New("a robot resolver is required")
	}
	if opts.Robots == nil {
		opts.Robots = config.LoadConfig
	}

	s := &HTTPServer{
		mux:      http.NewServeMux(),
		tokens:   opts.Tokens,
		version:  opts.Version,
		resolve:  opts.Resolve,
		robots:   opts.Robots,
		recorder: opts.Recorder,
		events:   newHub(),
	}
	s.registerRoutes()
	return s, nil
}

func (s *HTTPServer) registerRoutes() {
	s.mux.HandleFunc("/health", loggingMiddleware(s.handleHealth))
	if s.recorder != nil {
		metricsHandler := promhttp.HandlerFor(s.recorder.Gatherer(), promhttp.HandlerOpts{})
		s.mux.HandleFunc("/metrics", loggingMiddleware(s.authMiddleware(metricsHandler.ServeHTTP)))
	}

	s.mux.HandleFunc("/send", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleSend))))
	s.mux.HandleFunc("/send/", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleSend))))
	s.mux.HandleFunc("/raw/", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleRaw))))
	s.mux.HandleFunc("/robots", loggingMiddleware(s.authMiddleware(s.handleRobots)))
	s.mux.HandleFunc("/events", loggingMiddleware(s.authMiddleware(s.handleEvents)))
}

// Handle mounts h behind the logging and auth middleware.
func (s *HTTPServer) Handle(pattern string, h http.Handler) {
	s.mux.HandleFunc(pattern, loggingMiddleware(s.authMiddleware(h.ServeHTTP)))
}

// Handler exposes the route table, mainly for tests.
func (s *HTTPServer) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr until ctx is done, then drains in-flight
// requests for up to five seconds.
func (s *HTTPServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[HTTP] relay listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.events.close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Printf("[HTTP] relay stopped")
	return nil
}
