// Package server exposes the agent over HTTP: the agent card, the
// invocation endpoint, health, metrics, and invocation history.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kadirpekel/echoagent/pkg/agent"
	"github.com/kadirpekel/echoagent/pkg/config"
	"github.com/kadirpekel/echoagent/pkg/history"
	"github.com/kadirpekel/echoagent/pkg/logger"
)

// Server serves the agent protocol endpoints.
type Server struct {
	cfg        config.ServerConfig
	dispatcher *agent.Dispatcher
	card       *agent.Card
	store      history.Store
	log        *slog.Logger

	httpServer *http.Server
}

// New creates a server over the given dispatcher. The agent card is
// snapshotted at construction time. store may be nil to disable history.
func New(cfg config.ServerConfig, dispatcher *agent.Dispatcher, store history.Store) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		card:       agent.NewCard(dispatcher.Identity(), dispatcher.Registry()),
		store:      store,
		log:        logger.GetLogger(),
	}
}

// Card returns the card snapshot the server advertises.
func (s *Server) Card() *agent.Card {
	return s.card
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.cfg.Address()
}

// Handler builds the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.log))
	r.Use(corsMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/agent/card", s.handleCard)
	r.Get("/.well-known/agent-card.json", s.handleWellKnownCard)
	r.Post("/agent/invoke", s.handleInvoke)
	r.Get("/agent/invocations", s.handleInvocations)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Address(),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Agent server listening",
			"address", s.cfg.Address(), "agent", s.card.AgentID)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.log.Info("Shutting down agent server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.card.Manifest()
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error_kind": "internal_error",
			"message":    err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(manifest)
}

func (s *Server) handleWellKnownCard(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, r.Host)

	respondJSON(w, http.StatusOK, buildWellKnownCard(s.dispatcher.Identity(), s.card, baseURL))
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req agent.InvocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, &agent.InvocationError{
			Kind:    agent.ErrMalformedRequest,
			Message: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	result, invErr := s.dispatcher.Dispatch(r.Context(), &req)
	s.record(r.Context(), &req, result, invErr)

	outcome := "success"
	if invErr != nil {
		outcome = string(invErr.Kind)
	}
	recordInvocationMetric(req.Capability, outcome)

	if invErr != nil {
		respondJSON(w, invErr.HTTPStatus(), invErr)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleInvocations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error_kind": "history_disabled",
			"message":    "invocation history is not configured",
		})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error_kind": "internal_error",
			"message":    err.Error(),
		})
		return
	}
	if records == nil {
		records = []history.Record{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"invocations": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"agent":  s.card.Name,
	})
}

// record appends the invocation outcome to the history store.
func (s *Server) record(ctx context.Context, req *agent.InvocationRequest, result *agent.InvocationResult, invErr *agent.InvocationError) {
	if s.store == nil {
		return
	}

	rec := history.Record{
		ID:         uuid.NewString(),
		Capability: req.Capability,
		Message:    req.Message,
		CreatedAt:  time.Now().UTC(),
	}
	if invErr != nil {
		rec.ErrorKind = string(invErr.Kind)
	} else {
		rec.Response = fmt.Sprintf("%v", result.Response)
	}

	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Warn("Failed to record invocation", "error", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.GetLogger().Error("Failed to encode response", "error", err)
	}
}
