package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// HealthPath is served next to the MCP endpoint in HTTP mode.
const HealthPath = "/healthz"

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server exposes the chat service as MCP tools and resources.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates the server and registers its tools and resources.
func NewServer(ports *Ports) (*Server, error) {
	if ports == nil {
		return nil, ErrMissingChatService
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(&mcp.Implementation{Name: "normrag", Version: Version}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the HTTP handler: the health check at HealthPath and
// the streamable MCP endpoint everywhere else.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.Handle("/", mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil))
	return mux
}

// RunHTTP serves Handler on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP server shutdown: %v", err)
		}
	}()

	logger.Info("MCP server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type healthReport struct {
	Status  string      `json:"status"`
	Version string      `json:"version"`
	Indexes []indexInfo `json:"indexes,omitempty"`
}

// handleHealth answers 503 while the normative index is missing. A missing
// TT index only degrades the status, since TT requests then fall back to
// the normative corpus.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	report := healthReport{Status: "ok", Version: Version}
	code := http.StatusOK
	if s.ports.Indexes != nil {
		report.Indexes = s.indexInfos()
		for _, info := range report.Indexes {
			switch {
			case info.Built:
			case info.Corpus == domain.CorpusNormative.String():
				report.Status = "unavailable"
				code = http.StatusServiceUnavailable
			case code == http.StatusOK:
				report.Status = "degraded"
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.Warn("writing health report: %v", err)
	}
}
