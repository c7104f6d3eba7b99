// Package server exposes a Recommender and its catalog over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scbrown/shelf/internal/logging"
	"github.com/scbrown/shelf/internal/metrics"
	"github.com/scbrown/shelf/internal/recommend"
	"github.com/scbrown/shelf/internal/store"
)

// DefaultTrendingTop is the trending list length when no top parameter is given.
const DefaultTrendingTop = 10

// Options holds the optional collaborators of a Server.
type Options struct {
	// Store, when set, answers /api/v1/stats instead of the in-memory catalog.
	// Set it only when the catalog was loaded from this store.
	Store store.Store

	// Metrics records per-route request counts.
	Metrics *metrics.Metrics

	// Gatherer, when set, is served at /metrics.
	Gatherer prometheus.Gatherer
}

// Server wraps a Recommender and exposes it over HTTP.
type Server struct {
	rec    *recommend.Recommender
	opts   Options
	router chi.Router
	srv    *http.Server
}

// New creates a Server answering from rec.
func New(rec *recommend.Recommender, opts Options) *Server {
	s := &Server{rec: rec, opts: opts, router: chi.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "no route for %s %s", r.Method, r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "method %s not allowed", r.Method)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/products", s.handleProducts)
		r.Get("/products/trending", s.handleTrending)
		r.Get("/recommendations", s.handleRecommend)
		r.Post("/recommendations", s.handleRecommend)
		r.Get("/stats", s.handleStats)
	})
	if s.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.opts.Gatherer))
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s.srv.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	s.srv = &http.Server{
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s.srv.Serve(ln)
}

// Handler returns the HTTP handler for use with httptest.Server or custom listeners.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := parseInt(r, "limit")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "%v", err)
		return
	}
	c := s.rec.Catalog()
	if limit <= 0 {
		limit = c.Len()
	}
	writeJSON(w, http.StatusOK, c.Head(limit))
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	top, err := parseInt(r, "top")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "%v", err)
		return
	}
	if top <= 0 {
		top = DefaultTrendingTop
	}
	writeJSON(w, http.StatusOK, s.rec.Catalog().Trending(top))
}

// recommendRequest is the JSON body accepted by POST /api/v1/recommendations.
type recommendRequest struct {
	Query string `json:"query"`
	Top   int    `json:"top"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	req, err := parseRecommendRequest(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "%v", err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeErr(w, http.StatusBadRequest, "please enter a search term")
		return
	}
	writeJSON(w, http.StatusOK, s.rec.Explain(r.Context(), req.Query, req.Top))
}

// parseRecommendRequest reads the query and top count from the URL for GET,
// and from a JSON or form body for POST. The form field "prod" is accepted
// alongside "q".
func parseRecommendRequest(r *http.Request) (recommendRequest, error) {
	var req recommendRequest
	if r.Method == http.MethodPost {
		ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if ct == "application/json" {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return req, fmt.Errorf("invalid request body: %w", err)
			}
			return req, nil
		}
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("invalid form body: %w", err)
		}
		req.Query = firstNonEmpty(r.PostForm.Get("prod"), r.PostForm.Get("q"), r.URL.Query().Get("q"))
		top, err := atoi("top", firstNonEmpty(r.PostForm.Get("top"), r.URL.Query().Get("top")))
		if err != nil {
			return req, err
		}
		req.Top = top
		return req, nil
	}

	req.Query = firstNonEmpty(r.URL.Query().Get("q"), r.URL.Query().Get("prod"))
	top, err := parseInt(r, "top")
	if err != nil {
		return req, err
	}
	req.Top = top
	return req, nil
}

// statsResponse adds recommender state to the catalog statistics.
type statsResponse struct {
	store.Stats
	CacheItems int `json:"cache_items"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var st store.Stats
	if s.opts.Store != nil {
		var err error
		st, err = s.opts.Store.Stats(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "getting stats: %v", err)
			return
		}
	} else {
		st = store.ComputeStats(s.rec.Catalog().Products())
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: st, CacheItems: s.rec.CacheItems()})
}

// requestID tags each request with an ID, taken from X-Request-ID when the
// client sends one, and carries it into the logging context.
func requestID(next http.Handler) http.Handler {
	withChi := chimiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chimiddleware.GetReqID(r.Context())
		w.Header().Set(chimiddleware.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(chimiddleware.RequestIDHeader) == "" {
			r.Header.Set(chimiddleware.RequestIDHeader, logging.NewRequestID())
		}
		withChi.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			s.opts.Metrics.RecordHTTP(route, status, elapsed)
			logging.Ctx(r.Context()).Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Int("status", status).
				Str("remote", r.RemoteAddr).
				Dur("took", elapsed).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// writeErr writes a JSON error response.
func writeErr(w http.ResponseWriter, status int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	writeJSON(w, status, map[string]string{"error": msg})
}
