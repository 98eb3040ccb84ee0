// Package server exposes the query agent over HTTP: one ask endpoint plus
// health, config-schema, and Prometheus scrape endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inferyx/queryagent/pkg/agent"
	"github.com/inferyx/queryagent/pkg/config"
)

// Asker answers a natural-language question about the database.
// Satisfied by *agent.Agent.
type Asker interface {
	Ask(ctx context.Context, question string) (*agent.Result, error)
}

// HTTPServer serves the query agent API.
type HTTPServer struct {
	cfg    *config.Config
	agent  Asker
	server *http.Server
}

// NewHTTPServer creates a new HTTP server from config.
func NewHTTPServer(cfg *config.Config, asker Asker) *HTTPServer {
	if cfg.Server.Host == "" || cfg.Server.Port == 0 {
		cfg.Server.SetDefaults()
	}
	return &HTTPServer{
		cfg:   cfg,
		agent: asker,
	}
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Question     string `json:"question"`
	IncludeTrace bool   `json:"include_trace,omitempty"`
}

// AskResponse is the reply to an ask request. Trace is present only when the
// request opted in; its results are capped for display.
type AskResponse struct {
	Answer     string             `json:"answer"`
	Outcome    string             `json:"outcome"`
	Rounds     int                `json:"rounds"`
	TokensUsed int                `json:"tokens_used"`
	Trace      []agent.TraceEntry `json:"trace,omitempty"`
}

// Start runs the server until ctx is canceled or the listener fails.
func (s *HTTPServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("HTTP server starting", "address", s.cfg.Server.Address())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slog.Info("HTTP server shutting down")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	return nil
}

// Address returns the host:port the server listens on.
func (s *HTTPServer) Address() string {
	return s.cfg.Server.Address()
}

// Handler returns the full handler chain serving the API.
func (s *HTTPServer) Handler() http.Handler {
	var handler http.Handler = s.setupRoutes()
	handler = s.corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	return handler
}

// setupRoutes configures the HTTP routes:
//   - POST /v1/ask     → one question, one answer
//   - GET  /health     → liveness probe
//   - GET  /api/schema → JSON Schema for the config file
//   - GET  /metrics    → Prometheus scrape endpoint (when enabled)
func (s *HTTPServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/ask", s.handleAsk)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/schema", s.handleGetSchema)

	if s.cfg.Metrics.Enabled {
		mux.Handle(s.cfg.Metrics.Path, promhttp.Handler())
		slog.Info("Metrics endpoint enabled", "path", s.cfg.Metrics.Path)
	}

	return mux
}

// handleAsk answers one natural-language question.
func (s *HTTPServer) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := s.agent.Ask(r.Context(), req.Question)
	if err != nil {
		slog.Error("Ask request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to answer question: "+err.Error())
		return
	}

	resp := AskResponse{
		Answer:     result.Answer,
		Outcome:    string(result.Outcome),
		Rounds:     result.Rounds,
		TokensUsed: result.TokensUsed,
	}
	if req.IncludeTrace {
		resp.Trace = agent.BuildTrace(result.Transcript)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleHealth returns server health status.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleGetSchema generates and returns JSON Schema for the config file.
// The schema is reflected at request time so it always matches the running
// binary.
func (s *HTTPServer) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.ID = "https://github.com/inferyx/queryagent/schemas/config.json"
	schema.Title = "Query Agent Configuration Schema"
	schema.Description = "Complete configuration schema for the MongoDB query agent"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(schema); err != nil {
		slog.Error("Failed to encode schema", "error", err)
	}
}

// corsMiddleware adds permissive CORS headers so browser UIs can call the API.
func (s *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware tags each request with an id and logs it on completion.
func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID,
			"duration", time.Since(start),
		)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
