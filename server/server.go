// Package server exposes sessions and conversation turns over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"github.com/tbxark/mediaplan/agent"
	"github.com/tbxark/mediaplan/internal/logging"
	"github.com/tbxark/mediaplan/session"
	"github.com/tbxark/mediaplan/types"
)

const (
	defaultTurnTimeout = 90 * time.Second
	maxBodyBytes       = 64 << 10
)

type Server struct {
	orchestrator *agent.Orchestrator
	sessions     *session.Manager
	turnTimeout  time.Duration
	metrics      http.Handler
	logger       *slog.Logger
}

type Option func(*Server)

func WithTurnTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.turnTimeout = d
		}
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(orchestrator *agent.Orchestrator, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		orchestrator: orchestrator,
		sessions:     sessions,
		turnTimeout:  defaultTurnTimeout,
		logger:       logging.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.health)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/messages", s.postMessage)
		})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

type SessionResponse struct {
	ID    string                   `json:"id"`
	State *types.ConversationState `json:"state"`
}

type TurnResponse struct {
	Stage    types.Stage              `json:"stage"`
	Messages []types.Message          `json:"messages"`
	State    *types.ConversationState `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	state := s.orchestrator.NewState(r.Context())
	id, err := s.sessions.Create(r.Context(), state)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, SessionResponse{ID: id, State: state})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	state, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{ID: id, State: state})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	var in agent.Inbound
	if err := sonic.Unmarshal(body, &in); err != nil || strings.TrimSpace(in.Text) == "" {
		s.logger.Warn("invalid message body", "session_id", id, "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}

	var appended []types.Message
	state, err := s.sessions.Update(r.Context(), id, func(ctx context.Context, state *types.ConversationState) (*types.ConversationState, error) {
		turnCtx, cancel := context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
		before := len(state.Messages)
		next := s.orchestrator.OnMessage(turnCtx, state, in)
		appended = agent.Appended(next, before)
		return next, nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if appended == nil {
		appended = []types.Message{}
	}
	s.writeJSON(w, http.StatusOK, TurnResponse{Stage: state.Stage, Messages: appended, State: state})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Error("request failed", "err", err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Error("response encode failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("response write failed", "err", err)
	}
}
