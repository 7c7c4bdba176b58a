package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"fingersatz/internal/api"
	"fingersatz/internal/config"
	"fingersatz/internal/jobs"
	"fingersatz/internal/logging"
)

// maxRequestBytes bounds direct request payloads. Base64-encoded scores run
// about a third larger than the source file.
const maxRequestBytes = 32 << 20

type apiServer struct {
	bind    string
	token   string
	logger  *slog.Logger
	daemon  *Daemon
	jobsSvc *api.JobsService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	svc := api.NewJobsService(d.journal)
	mux := http.NewServeMux()
	srv := &apiServer{
		bind:    bind,
		token:   token,
		logger:  logger,
		daemon:  d,
		jobsSvc: svc,
	}

	mux.HandleFunc("/api/v1/fingerings", authMiddleware(token, srv.handleFingerings))
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/jobs", authMiddleware(token, srv.handleJobs))
	mux.HandleFunc("/api/jobs/", authMiddleware(token, srv.handleJob))
	mux.HandleFunc("/api/notify/test", authMiddleware(token, srv.handleNotifyTest))
	// Health probes stay unauthenticated so orchestrators can poll them.
	mux.HandleFunc("/api/healthz", srv.handleHealthz)

	// The slowest request runs the engine once per hand plus transfer
	// overhead, so the write timeout has to cover two engine invocations.
	writeTimeout := 2*time.Duration(cfg.Engine.TimeoutSeconds)*time.Second + 30*time.Second

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// handleFingerings accepts a direct-request payload and renders the
// processing envelope: statusCode becomes the HTTP status, headers become
// response headers, and the body string is written as the response body.
func (s *apiServer) handleFingerings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read request body")
		return
	}
	if len(payload) > maxRequestBytes {
		s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	env := s.daemon.Process(r.Context(), payload)
	for key, value := range env.Headers {
		w.Header().Set(key, value)
	}
	if env.Body != "" {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(env.StatusCode)
		_, _ = io.WriteString(w, env.Body)
		return
	}
	s.writeJSON(w, env.StatusCode, env)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		DeliveryMode:  status.DeliveryMode,
		JournalDBPath: status.JournalDBPath,
		LockFilePath:  status.LockFilePath,
		Jobs:          api.FromHealthSummary(status.Jobs),
		Dependencies:  api.FromDependencyStatuses(status.Dependencies),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.jobsSvc == nil {
		s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: nil})
		return
	}
	status := jobs.Status(strings.TrimSpace(r.URL.Query().Get("status")))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.jobsSvc.List(r.Context(), status, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: entries})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.jobsSvc == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	entry, err := s.jobsSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entry == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobEntryResponse{Job: *entry})
}

func (s *apiServer) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sent, detail, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusBadGateway, api.NotifyTestResponse{Sent: false, Detail: detail})
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotifyTestResponse{Sent: sent, Detail: detail})
}

func (s *apiServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.jobsSvc == nil {
		s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
		return
	}
	health, err := s.jobsSvc.Health(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "degraded"})
		return
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok", Jobs: health})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
