// Package httpapi exposes the Command Surface over a loopback-only HTTP
// interface, mirroring the same commands the Wails bridge exposes to the
// desktop front-end, for scripting and external tooling.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"maa-se/internal/audit"
	"maa-se/internal/runhistory"
	"maa-se/internal/taskqueue"
)

// Commands is the narrow surface the HTTP server delegates to; it is
// satisfied by the root app's command implementations so this package
// never depends on session/updater directly.
type Commands interface {
	RunDaily() error
	StopCore()
	UpdateConfig(name string, params taskqueue.Parameters) error
	GetConfig() (string, error)
	SetLogLevel(level string) error
	Update(targetType string) (string, error)
	UpdateResource() (string, error)
	SetDownloadRateLimit(bytesPerSec int64) error
}

// Server is the loopback-only HTTP control surface.
type Server struct {
	logger   *slog.Logger
	commands Commands
	audit    *audit.Log
	history  *runhistory.Store
	router   *chi.Mux
}

// New builds a Server. history may be nil if run history isn't wired.
func New(logger *slog.Logger, commands Commands, auditLog *audit.Log, history *runhistory.Store) *Server {
	s := &Server{logger: logger, commands: commands, audit: auditLog, history: history, router: chi.NewRouter()}
	s.routes()
	return s
}

// ListenAndServe binds to 127.0.0.1:port and serves until the listener
// fails or the process exits; intended to run in its own goroutine.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("httpapi: bind %s: %w", addr, err)
	}
	s.logger.Info("http_control_surface_listening", "addr", addr)
	return http.Serve(ln, s.router)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.loopbackOnly)

	s.router.Post("/api/run_daily", s.handleRunDaily)
	s.router.Post("/api/stop_core", s.handleStopCore)
	s.router.Post("/api/update_config", s.handleUpdateConfig)
	s.router.Get("/api/config", s.handleGetConfig)
	s.router.Post("/api/log_level", s.handleSetLogLevel)
	s.router.Post("/api/update", s.handleUpdate)
	s.router.Post("/api/update_resource", s.handleUpdateResource)
	s.router.Post("/api/download_rate_limit", s.handleSetDownloadRateLimit)
	s.router.Get("/api/history", s.handleHistory)
}

// loopbackOnly rejects any request not originating from 127.0.0.1/::1,
// matching the control server's localhost-enforcement discipline.
func (s *Server) loopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, _ := net.SplitHostPort(r.RemoteAddr)
		if host != "127.0.0.1" && host != "::1" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) record(command string, err error) {
	if s.audit == nil {
		return
	}
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	s.audit.Record(command, err == nil, detail)
}

func (s *Server) handleRunDaily(w http.ResponseWriter, r *http.Request) {
	err := s.commands.RunDaily()
	s.record("run_daily", err)
	writeResult(w, nil, err)
}

func (s *Server) handleStopCore(w http.ResponseWriter, r *http.Request) {
	s.commands.StopCore()
	s.record("stop_core", nil)
	writeResult(w, nil, nil)
}

type updateConfigRequest struct {
	Name   string               `json:"name"`
	Params taskqueue.Parameters `json:"params"`
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req updateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err := s.commands.UpdateConfig(req.Name, req.Params)
	s.record("update_config", err)
	writeResult(w, nil, err)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	payload, err := s.commands.GetConfig()
	s.record("get_config", err)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(payload))
}

type setLogLevelRequest struct {
	Level string `json:"level"`
}

func (s *Server) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req setLogLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err := s.commands.SetLogLevel(req.Level)
	s.record("set_log_level", err)
	writeResult(w, nil, err)
}

type updateRequest struct {
	TargetType string `json:"target_type"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := s.commands.Update(req.TargetType)
	s.record("update", err)
	writeResult(w, map[string]string{"result": result}, err)
}

func (s *Server) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	result, err := s.commands.UpdateResource()
	s.record("update_resource", err)
	writeResult(w, map[string]string{"result": result}, err)
}

type setDownloadRateLimitRequest struct {
	BytesPerSec int64 `json:"bytes_per_sec"`
}

func (s *Server) handleSetDownloadRateLimit(w http.ResponseWriter, r *http.Request) {
	var req setDownloadRateLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err := s.commands.SetDownloadRateLimit(req.BytesPerSec)
	s.record("set_download_rate_limit", err)
	writeResult(w, nil, err)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		w.Write([]byte(`{"runs":[],"updates":[]}`))
		return
	}
	runs, err := s.history.RecentRuns(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	updates, err := s.history.RecentUpdates(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"runs": runs, "updates": updates})
}

func writeResult(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if payload == nil {
		w.Write([]byte(`{}`))
		return
	}
	json.NewEncoder(w).Encode(payload)
}
