// Package server exposes campaigns over a websocket and the stored results
// over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/campaign"
	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

const (
	defaultMaxTarget = 10
	writeTimeout     = 10 * time.Second
	startTimeout     = 30 * time.Second
)

// Campaigner runs one campaign. *campaign.Runner satisfies it.
type Campaigner interface {
	Run(ctx context.Context, niche string, target int, sink campaign.Sink) ([]model.LeadRecord, error)
}

// Server serves the campaign websocket and the results API. Only one
// campaign runs at a time.
type Server struct {
	runner    Campaigner
	results   store.ResultStore
	metrics   http.Handler
	metricsAt string
	maxTarget int
	origins   []string

	busy     atomic.Bool
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at path.
func WithMetrics(path string, h http.Handler) Option {
	return func(s *Server) {
		if path == "" {
			path = "/metrics"
		}
		s.metricsAt, s.metrics = path, h
	}
}

// WithMaxTarget bounds the per-campaign target count.
func WithMaxTarget(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxTarget = n
		}
	}
}

// WithAllowedOrigins sets the CORS and websocket origin allow-list. "*"
// allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// New creates a Server.
func New(runner Campaigner, results store.ResultStore, opts ...Option) *Server {
	s := &Server{
		runner:    runner,
		results:   results,
		maxTarget: defaultMaxTarget,
		origins:   []string{"*"},
	}
	for _, o := range opts {
		o(s)
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/history", s.handleHistory)
		r.Get("/history.csv", s.handleHistoryCSV)
	})
	r.Get("/ws", s.handleWS)
	if s.metrics != nil {
		r.Method(http.MethodGet, s.metricsAt, s.metrics)
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "running": s.busy.Load()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.results.Load(r.Context())
	if err != nil {
		zap.L().Error("server: load results", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load results"})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	recs, err := s.results.Load(r.Context())
	if err != nil {
		zap.L().Error("server: load results", zap.Error(err))
		http.Error(w, "could not load results", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="outreach_report.csv"`)
	if err := export.WriteCSV(w, recs); err != nil {
		zap.L().Warn("server: write csv", zap.Error(err))
	}
}

// startRequest is the first frame a websocket client sends.
type startRequest struct {
	Niche string  `json:"niche"`
	Count flexInt `json:"count"`
}

// flexInt accepts 3 and "3".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return eris.Wrapf(err, "count %q", b)
	}
	*f = flexInt(n)
	return nil
}

func (s *Server) clampTarget(n int) int {
	switch {
	case n < 1:
		return 1
	case n > s.maxTarget:
		return s.maxTarget
	default:
		return n
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.busy.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a campaign is already running"})
		return
	}
	defer s.busy.Store(false)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("server: websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	send := func(ev model.Event) {
		if ctx.Err() != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			zap.L().Info("server: client gone, cancelling campaign", zap.Error(err))
			cancel()
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(startTimeout))
	var req startRequest
	if err := conn.ReadJSON(&req); err != nil {
		send(model.Event{Type: model.EventError, Message: "invalid start message"})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})
	niche := strings.TrimSpace(req.Niche)
	if niche == "" {
		send(model.Event{Type: model.EventError, Message: "niche is required"})
		return
	}

	// Drain client frames so close frames are seen and the run stops when
	// the client leaves.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	target := s.clampTarget(int(req.Count))
	zap.L().Info("server: campaign requested", zap.String("niche", niche), zap.Int("target", target))
	if _, err := s.runner.Run(ctx, niche, target, send); err != nil {
		zap.L().Info("server: campaign ended with error", zap.Error(err))
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
