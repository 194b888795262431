// Package api provides the HTTP server for the Slack agent.
// It exposes the A2A task endpoints, the agent card, MCP server info,
// health checks and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vinayprograms/slackagent/agent"
	"github.com/vinayprograms/slackagent/errors"
	"github.com/vinayprograms/slackagent/logging"
	"github.com/vinayprograms/slackagent/ratelimit"
	"github.com/vinayprograms/slackagent/tasks"
	"github.com/vinayprograms/slackagent/tools"
)

// Version is the service version reported by the health and card endpoints.
const Version = "0.1.0"

// Server is the Slack agent HTTP API server.
type Server struct {
	executor       *tasks.Executor
	agent          *agent.SlackAgent
	registry       *tools.Registry
	log            *logging.Logger
	metricsEnabled bool
	corsOrigins    []string
	limiter        *ratelimit.Limiter

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Server) {
		s.log = log.WithComponent("api")
	}
}

// WithMetrics enables the /metrics Prometheus endpoint.
func WithMetrics() Option {
	return func(s *Server) {
		s.metricsEnabled = true
	}
}

// WithCORSOrigins sets the allowed CORS origins. Default is "*".
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithRateLimiter applies the limiter to task submission requests.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(s *Server) {
		s.limiter = limiter
	}
}

// NewServer creates a new API server.
func NewServer(executor *tasks.Executor, slackAgent *agent.SlackAgent, registry *tools.Registry, opts ...Option) *Server {
	s := &Server{
		executor:    executor,
		agent:       slackAgent,
		registry:    registry,
		log:         logging.New().WithComponent("api"),
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/.well-known/agent-card", s.handleAgentCard)

	if s.limiter != nil {
		r.With(s.limiter.Middleware(ratelimit.ResourceTaskSubmit)).Post("/tasks", s.handleTaskSubmit)
	} else {
		r.Post("/tasks", s.handleTaskSubmit)
	}
	r.Get("/tasks/{task_id}", s.handleTaskStatus)
	r.Post("/tasks/{task_id}/execute", s.handleTaskExecute)

	r.Get("/mcp/info", s.handleMCPInfo)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// Serve starts the HTTP server on the given host and port and blocks
// until it stops. http.ErrServerClosed is returned after a clean
// shutdown.
func (s *Server) Serve(host string, port int) error {
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	s.log.Info("http server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"agent":   "slack-agent",
		"version": Version,
	})
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Card())
}

type submitRequest struct {
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleTaskSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	taskID, err := s.executor.SubmitTask(req.Message, req.Metadata)
	if err != nil {
		s.writeErrorFor(w, err, "submit task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_id": taskID,
		"status":  tasks.StatusPending.String(),
	})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	status, err := s.executor.TaskStatus(taskID)
	if err != nil {
		s.writeErrorFor(w, err, "task status")
		return
	}

	response := map[string]interface{}{
		"task_id": taskID,
		"status":  status.String(),
	}
	if result, err := s.executor.TaskResult(taskID); err == nil && result != nil {
		response["result"] = result
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleTaskExecute(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	result, err := s.executor.ExecuteTask(r.Context(), taskID)
	if err != nil && result == nil {
		s.writeErrorFor(w, err, "execute task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_id": taskID,
		"result":  result,
	})
}

func (s *Server) handleMCPInfo(w http.ResponseWriter, r *http.Request) {
	cfg := tools.StandaloneServerConfig(s.registry, "", 0)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":      cfg.Name,
		"version":   cfg.Version,
		"transport": cfg.Transport,
		"tools":     cfg.Tools,
	})
}

// --- Helpers ---

// writeErrorFor maps a typed error to an HTTP status. Unknown tasks map
// to 404, executor-not-running preconditions to 503, bad input to 400
// and everything else to 500.
func (s *Server) writeErrorFor(w http.ResponseWriter, err error, op string) {
	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodePrecondition:
		status = http.StatusServiceUnavailable
	case errors.ErrCodeValidation:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.log.Error(op+" failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": msg,
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origin := "*"
	if len(s.corsOrigins) > 0 {
		origin = s.corsOrigins[0]
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
