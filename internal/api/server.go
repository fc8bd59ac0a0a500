package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	chi "github.com/go-chi/chi/v5"
)

// Sizer reports how many results are currently cached.
type Sizer interface {
	Len() int
}

// Server exposes liveness and readiness for the bot process.
type Server struct {
	router chi.Router
	cache  Sizer
	log    *slog.Logger
	ready  atomic.Bool
}

type readyResponse struct {
	Ready         bool `json:"ready"`
	CachedResults int  `json:"cachedResults"`
}

func NewServer(cache Sizer, logger *slog.Logger) (*Server, error) {
	if cache == nil {
		return nil, errors.New("api: cache must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{router: chi.NewRouter(), cache: cache, log: logger}
	s.routes()
	return s, nil
}

// SetReady flips the readiness probe. It is called once the gateway session
// is up and again with false on shutdown.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start))
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Get("/readyz", s.handleReady)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{Ready: s.ready.Load(), CachedResults: s.cache.Len()}
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
