// Package http exposes the turn pipeline and the memory inspector over a
// small JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/engram/internal/config"
	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/service/memory"
	"github.com/sandevgo/engram/internal/service/pipeline"
	"github.com/sandevgo/engram/pkg/log"
)

// healthProbeUser is the reserved user id used to exercise the session store
// on health checks. No real session is ever written under it.
const healthProbeUser = "health-check"

type Server struct {
	cfg      *config.HTTPConfig
	pipeline *pipeline.Pipeline
	store    *memory.Store
	history  core.HistoryRepository
	sessions core.SessionRepository
	srv      *http.Server
}

func NewServer(
	cfg *config.HTTPConfig,
	p *pipeline.Pipeline,
	store *memory.Store,
	history core.HistoryRepository,
	sessions core.SessionRepository,
) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: p,
		store:    store,
		history:  history,
		sessions: sessions,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/memory", s.handleMemory)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.withRequestLog(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")

	// Propagate the root logger into request contexts.
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		logger := log.FromCtx(r.Context()).With().Str("requestId", requestID).Logger()
		ctx := logger.WithContext(r.Context())

		w.Header().Set("X-Request-Id", requestID)

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().Interface("panic", rec).Msg("handler panicked")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))

		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req core.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	resp, err := s.pipeline.Run(r.Context(), req)
	if err != nil {
		// Run rejects structurally invalid turns; anything the model or
		// stores do wrong is absorbed into the degraded response instead.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type memoryView struct {
	memory.State
	StoredMessages int `json:"storedMessages"`
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	view := memoryView{State: s.store.State(userID)}
	if n, err := s.history.CountMessages(r.Context(), userID); err == nil {
		view.StoredMessages = n
	} else {
		log.FromCtx(r.Context()).Warn().Err(err).Msg("failed to count stored messages")
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.LoadSession(r.Context(), healthProbeUser); err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("health probe failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
