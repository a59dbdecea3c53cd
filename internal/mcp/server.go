package mcp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/mixer-client/internal/config"
	"github.com/honeycarbs/mixer-client/internal/domain/job"
	"github.com/honeycarbs/mixer-client/internal/export"
	"github.com/honeycarbs/mixer-client/pkg/logging"
)

const streamPath = "/mcp/stream"

// Server exposes the job tools over MCP streamable HTTP
type Server struct {
	logger  *logging.Logger
	srv     *http.Server
	started atomic.Bool
}

// NewServer registers list_jobs, upload_audio and export_jobs and binds
// them to cfg.Host:cfg.Port
func NewServer(log *logging.Logger, cfg config.Config, jobs job.Service, exporter *export.SheetsExporter, version string) *Server {
	log = log.Named("mcp")

	tools := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "mixer-client", Version: version}, nil)
	registerTools(tools, toolDeps{jobs: jobs, exporter: exporter, logger: log})

	mux := http.NewServeMux()
	mux.Handle(streamPath, sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return tools
	}, nil))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		logger: log,
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:           withRequestLog(log, mux),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Addr is the configured listen address
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Run listens until Shutdown is called. A second call is a no-op.
func (s *Server) Run() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Info("MCP HTTP server listening", "addr", s.srv.Addr, "path", streamPath)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight tool calls
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("stopping MCP HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("MCP HTTP server stopped with error", "err", err)
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streamed MCP responses working through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func withRequestLog(log *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		log.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start))
	})
}
