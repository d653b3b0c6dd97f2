// Package httpapi exposes the analysis pipeline over REST. All routes live
// under /api/v1 and answer JSON; error bodies carry a single "detail" field.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"stock-signal-advisor/internal/logger"
	"stock-signal-advisor/internal/store"
)

// Server wraps the router and the underlying http.Server.
type Server struct {
	router *mux.Router
	server *http.Server
	h      *Handlers
	cfg    *store.Config
}

func NewServer(cfg *store.Config, h *Handlers) *Server {
	s := &Server{
		router: mux.NewRouter(),
		h:      h,
		cfg:    cfg,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleSeconds) * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.corsMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/analyze", s.h.Analyze).Methods("POST", "OPTIONS")
	api.HandleFunc("/health", s.h.Health).Methods("GET")

	// Single-pillar debug routes, handy for poking at one data source
	// without burning an LLM call.
	tools := api.PathPrefix("/tools").Subrouter()
	tools.HandleFunc("/stock-price/{ticker}", s.h.ToolStockPrice).Methods("GET")
	tools.HandleFunc("/company-name/{ticker}", s.h.ToolCompanyName).Methods("GET")
	tools.HandleFunc("/technicals/{ticker}", s.h.ToolTechnicals).Methods("GET")
	tools.HandleFunc("/fundamentals/{ticker}", s.h.ToolFundamentals).Methods("GET")
	tools.HandleFunc("/news/{ticker}", s.h.ToolNews).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, http.StatusNotFound, "route not found")
	})
}

// Router exposes the handler tree, used by tests via httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	logger.Info(context.Background(), "HTTP server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info(ctx, "HTTP server shutting down")
	return s.server.Shutdown(ctx)
}
