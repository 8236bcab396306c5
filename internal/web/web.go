package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BennyTheCop-HazeTaze/familjekalender/internal/config"
	"github.com/BennyTheCop-HazeTaze/familjekalender/internal/ics"
	appLog "github.com/BennyTheCop-HazeTaze/familjekalender/internal/log"
)

// Snapshot is the result of the most recent successful merge run. It is
// immutable once published; the HTTP handlers only ever read it.
type Snapshot struct {
	Document string
	Report   ics.Report
	MergedAt time.Time
}

// Server exposes the merged calendar over HTTP: the document itself on
// /calendar.ics, a health summary on /health, and Prometheus metrics
// on /metrics.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewServer constructs a Server. The snapshot starts empty; handlers
// answer 503 until the first merge is published with SetSnapshot.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// SetSnapshot publishes the result of a merge run.
func (s *Server) SetSnapshot(snap Snapshot) {
	s.mu.Lock()
	s.snapshot = &snap
	s.mu.Unlock()
}

func (s *Server) currentSnapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Handler returns the http.Handler for this server, wrapped in basic
// auth when credentials are configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards all handlers except /health and /metrics.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="familjekalender", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
}

// handleCalendar serves the merged document exactly as written to the
// output file, so calendar clients can subscribe to this endpoint
// instead of the file.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.currentSnapshot()
	if snap == nil {
		http.Error(w, "no merged calendar yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="combined.ics"`)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(snap.Document))
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Events    int       `json:"events"`
	Sources   int       `json:"sources"`
	LastMerge time.Time `json:"last_merge,omitzero"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "starting"}
	if snap := s.currentSnapshot(); snap != nil {
		resp = healthResponse{
			Status:    "ok",
			Events:    snap.Report.EventsEmitted,
			Sources:   snap.Report.SourcesMerged,
			LastMerge: snap.MergedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// StartServer binds to cfg.Listen and serves until ctx is cancelled or
// the listener fails. Cancellation triggers a graceful Shutdown with a
// short drain window; a clean shutdown returns nil.
func StartServer(ctx context.Context, cfg *config.Config, s *Server) error {
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("HTTP server shutdown failed", err)
		}
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
