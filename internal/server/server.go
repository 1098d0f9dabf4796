// Package server exposes the agent's collaborators over HTTP: bash
// execution, file access, and conversation lifecycle, the same peer-server
// surface a RemoteRuntime or DockerRuntime dials into.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kaelorun/agentcore/internal/agentloop"
	"github.com/kaelorun/agentcore/internal/bashexec"
	"github.com/kaelorun/agentcore/internal/events"
	"github.com/kaelorun/agentcore/internal/llm"
	"github.com/kaelorun/agentcore/internal/observability"
	agentruntime "github.com/kaelorun/agentcore/internal/runtime"
	"github.com/kaelorun/agentcore/internal/toolkit/fileops"
)

// Config configures a Server's listening address and collaborators.
type Config struct {
	Host string
	Port int

	Store    *events.Store
	Executor *bashexec.Executor
	Files    *fileops.Ops

	// LLMClient and SystemMessage build the Agent each new conversation
	// uses. LLMClient may be nil if the conversation endpoints are not
	// needed (e.g. a peer server used only for bash/file proxying).
	LLMClient     llm.Client
	SystemMessage string

	// ConversationRuntime builds the Runtime a new conversation executes
	// tool calls against. Required only if conversation endpoints are used.
	ConversationRuntime func() agentruntime.Runtime

	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// Server is the HTTP peer server: a thin transport wrapper around the
// bash executor, file ops, and conversation machinery built elsewhere.
type Server struct {
	config  Config
	logger  *observability.Logger
	metrics *observability.Metrics

	startTime time.Time

	httpServer   *http.Server
	httpListener net.Listener

	convMu        sync.Mutex
	conversations map[string]*agentloop.Conversation
}

// defaultMetrics is shared across Server instances within a process:
// promauto registers collectors against Prometheus's default registry, and
// NewMetrics is documented to run once per process.
var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *observability.Metrics
)

func sharedDefaultMetrics() *observability.Metrics {
	defaultMetricsOnce.Do(func() { defaultMetrics = observability.NewMetrics() })
	return defaultMetrics
}

// New builds a Server from cfg. It does not start listening.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{})
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = sharedDefaultMetrics()
	}
	return &Server{
		config:        cfg,
		logger:        logger,
		metrics:       metrics,
		startTime:     time.Now().UTC(),
		conversations: make(map[string]*agentloop.Conversation),
	}
}

// Mux builds the routed handler for this server.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/alive", s.handleAlive)
	mux.HandleFunc("/server_info", s.handleServerInfo)

	mux.HandleFunc("/bash/start_bash_command", s.handleStartBashCommand)
	mux.HandleFunc("/bash/execute_bash_command", s.handleExecuteBashCommand)
	mux.HandleFunc("/bash/bash_events/search", s.handleBashEventsSearch)
	mux.HandleFunc("/bash/bash_events/", s.handleBashEventByID)

	mux.HandleFunc("/file/read", s.handleFileRead)
	mux.HandleFunc("/file/write", s.handleFileWrite)

	mux.HandleFunc("/api/conversations", s.handleCreateConversation)
	mux.HandleFunc("/api/conversations/", s.handleConversationMessage)

	return s.withLogging(mux)
}

// Start begins serving on config.Host:config.Port in the background.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.httpServer = httpServer
	s.httpListener = listener

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error(ctx, "http server error", "error", err)
		}
	}()

	s.logger.Info(ctx, "starting http server", "addr", addr)
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	err := s.httpServer.Shutdown(ctx)
	s.httpServer = nil
	s.httpListener = nil
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		s.logger.Debug(r.Context(), "http request", "method", r.Method, "path", r.URL.Path, "duration", duration)
		s.metrics.RecordHTTPRequest(r.Method, r.URL.Path, fmt.Sprintf("%d", rec.status), duration.Seconds())
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Debug(r.Context(), "write response failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleAlive(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"uptime_seconds": time.Since(s.startTime).Seconds(),
		"started_at":     s.startTime,
		"go_version":     runtime.Version(),
		"num_goroutine":  runtime.NumGoroutine(),
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
	})
}

type startBashRequest struct {
	Command        string  `json:"command"`
	Cwd            *string `json:"cwd"`
	TimeoutSeconds uint64  `json:"timeout_seconds"`
}

func (s *Server) handleStartBashCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req startBashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ev, err := s.config.Executor.Start(req.Command, req.Cwd, req.TimeoutSeconds)
	if err != nil {
		s.metrics.RecordError("bash", "start_failed")
		s.writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, r, http.StatusOK, ev)
}

func (s *Server) handleExecuteBashCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req startBashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	_, output, err := s.config.Executor.ExecuteAndWait(r.Context(), req.Command, req.Cwd, req.TimeoutSeconds)
	if err != nil {
		s.metrics.RecordError("bash", "execute_failed")
		s.writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, r, http.StatusOK, output)
}

func (s *Server) handleBashEventsSearch(w http.ResponseWriter, r *http.Request) {
	var commandID *uuid.UUID
	if raw := r.URL.Query().Get("command_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid command_id", http.StatusBadRequest)
			return
		}
		commandID = &id
	}
	page, err := s.config.Store.Search(commandID)
	if err != nil {
		s.metrics.RecordError("bash_events", "search_failed")
		s.writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"items":        page.Items,
		"next_page_id": page.NextPageID,
	})
}

func (s *Server) handleBashEventByID(w http.ResponseWriter, r *http.Request) {
	idRaw := strings.TrimPrefix(r.URL.Path, "/bash/bash_events/")
	id, err := uuid.Parse(idRaw)
	if err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	ev, ok, err := s.config.Store.Get(id)
	if err != nil {
		s.metrics.RecordError("bash_events", "get_failed")
		s.writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	if ev.Type == events.KindBashCommand {
		s.writeJSON(w, r, http.StatusOK, bashCommandStatus{
			Event:   ev,
			Running: s.config.Executor.IsRunning(ev.ID),
		})
		return
	}
	s.writeJSON(w, r, http.StatusOK, ev)
}

// bashCommandStatus augments a BashCommand event with whether its
// background goroutine is still running, per Executor.IsRunning.
type bashCommandStatus struct {
	events.Event
	Running bool `json:"running"`
}

type fileReadRequest struct {
	Path   string  `json:"path"`
	Offset *uint64 `json:"offset"`
	Limit  *uint64 `json:"limit"`
}

type fileWriteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type fileResponse struct {
	Path    string  `json:"path"`
	Content *string `json:"content,omitempty"`
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
}

func (s *Server) handleFileRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req fileReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	content, err := s.config.Files.ReadFile(req.Path, req.Offset, req.Limit)
	if err != nil {
		s.writeJSON(w, r, http.StatusOK, fileResponse{Path: req.Path, Success: false, Error: strPtr(err.Error())})
		return
	}
	if strings.HasPrefix(content, "Error") {
		s.writeJSON(w, r, http.StatusOK, fileResponse{Path: req.Path, Success: false, Error: &content})
		return
	}
	s.writeJSON(w, r, http.StatusOK, fileResponse{Path: req.Path, Content: &content, Success: true})
}

func (s *Server) handleFileWrite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req fileWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := s.config.Files.WriteFile(req.Path, req.Content)
	if err != nil {
		s.writeJSON(w, r, http.StatusOK, fileResponse{Path: req.Path, Success: false, Error: strPtr(err.Error())})
		return
	}
	if strings.HasPrefix(result, "Error") {
		s.writeJSON(w, r, http.StatusOK, fileResponse{Path: req.Path, Success: false, Error: &result})
		return
	}
	s.writeJSON(w, r, http.StatusOK, fileResponse{Path: req.Path, Content: &result, Success: true})
}

func strPtr(s string) *string { return &s }

type createConversationResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.config.LLMClient == nil || s.config.ConversationRuntime == nil {
		http.Error(w, "conversation endpoints not configured", http.StatusServiceUnavailable)
		return
	}
	agent := agentloop.NewAgent(s.config.LLMClient, s.config.SystemMessage)
	conv := agentloop.NewConversation(agent, s.config.ConversationRuntime())

	s.convMu.Lock()
	s.conversations[conv.ID] = conv
	s.convMu.Unlock()

	s.writeJSON(w, r, http.StatusOK, createConversationResponse{ID: conv.ID})
}

type conversationMessageRequest struct {
	Content string `json:"content"`
}

type conversationMessageResponse struct {
	Content string `json:"content"`
}

func (s *Server) handleConversationMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	id := strings.TrimSuffix(rest, "/message")
	if id == rest {
		http.NotFound(w, r)
		return
	}

	s.convMu.Lock()
	conv, ok := s.conversations[id]
	s.convMu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	var req conversationMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	conv.Append(agentloop.NewUserMessage(req.Content))

	event, err := conv.Step(r.Context())
	if err != nil {
		s.metrics.RecordError("conversation", "step_failed")
		s.writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, r, http.StatusOK, conversationMessageResponse{Content: event.Content})
}
