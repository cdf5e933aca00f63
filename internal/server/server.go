// Package server exposes the export pipeline over HTTP.
//
// Routes:
//
//	POST /v1/export    SVG body, tokens in ?token=...; responds with the image
//	POST /v1/resolve   JSON natural box and tokens; responds with the resolved spec
//	GET  /healthz
//	GET  /version
//
// Every response carries an X-Request-ID header. Errors are JSON objects with
// the error code and a message.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/svgexport/pkg/pipeline"
)

const (
	// DefaultMaxBody caps the size of an uploaded SVG.
	DefaultMaxBody = 10 << 20

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Runner renders exports and owns the response cache.
	Runner *pipeline.Runner

	// MaxBody is the largest accepted request body in bytes.
	// Zero means DefaultMaxBody.
	MaxBody int64

	Logger *log.Logger
}

// Server is the HTTP front end of the export pipeline.
type Server struct {
	runner  *pipeline.Runner
	maxBody int64
	logger  *log.Logger
	router  chi.Router
}

// New creates a server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	maxBody := opts.MaxBody
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	s := &Server{
		runner:  opts.Runner,
		maxBody: maxBody,
		logger:  logger.WithPrefix("http"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/export", s.handleExport)
		r.Post("/resolve", s.handleResolve)
	})
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
// If ready is non-nil it receives the bound address once listening.
func (s *Server) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	if ready != nil {
		ready(ln.Addr())
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
