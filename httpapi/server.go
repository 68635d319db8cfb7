// Package httpapi serves the session orchestrator over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tbxark/charterflow/agent"
	"github.com/tbxark/charterflow/command"
	"github.com/tbxark/charterflow/extraction"
)

// IdempotencyHeader may carry the correlation id instead of the body.
const IdempotencyHeader = "Idempotency-Key"

const maxBodyBytes = 1 << 20

type Config struct {
	Port           int
	RequestTimeout time.Duration
	CORSOrigins    []string
}

type Server struct {
	cfg          Config
	orchestrator *agent.Orchestrator
	logger       *zap.Logger
	router       chi.Router
	httpServer   *http.Server
}

func New(cfg Config, orchestrator *agent.Orchestrator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.L()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	s := &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		logger:       logger.Named("http"),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", IdempotencyHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/catalog", s.handleCatalog)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleStart)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleState)
			r.Delete("/", s.handleDelete)
			r.Post("/reset", s.handleReset)
			r.Get("/prompt", s.handlePrompt)
			r.Post("/messages", s.handleMessage)
			r.Post("/commands", s.handleCommand)
			r.Get("/document", s.handleDocument)
		})
	})
	return r
}

func (s *Server) Router() chi.Router { return s.router }

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("listening", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "httpapi: listen")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type startRequest struct {
	ConversationID string         `json:"conversation_id"`
	Draft          map[string]any `json:"draft"`
	CorrelationID  string         `json:"correlation_id"`
}

type messageRequest struct {
	Text          string                       `json:"text"`
	CorrelationID string                       `json:"correlation_id"`
	Attachments   []extraction.Attachment      `json:"attachments"`
	Transcript    []extraction.TranscriptEvent `json:"transcript"`
}

// commandRequest accepts either a typed command or its text form.
type commandRequest struct {
	Command       string `json:"command"`
	Kind          string `json:"kind"`
	Target        string `json:"target"`
	CorrelationID string `json:"correlation_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"fields": s.orchestrator.Catalog().Fields()})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req, true) {
		return
	}
	res, err := s.orchestrator.StartSession(r.Context(), agent.StartOptions{
		ConversationID: req.ConversationID,
		Draft:          req.Draft,
		CorrelationID:  correlationID(r, req.CorrelationID),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.orchestrator.GetState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	res, err := s.orchestrator.ResetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	res, err := s.orchestrator.PromptCurrentField(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	res, err := s.orchestrator.HandleUserMessage(r.Context(), agent.UserMessage{
		ConversationID: chi.URLParam(r, "id"),
		Text:           req.Text,
		CorrelationID:  correlationID(r, req.CorrelationID),
		Attachments:    req.Attachments,
		Transcript:     req.Transcript,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	cmd := command.Command{Kind: command.Kind(req.Kind), Target: req.Target}
	if req.Command != "" {
		cmd = command.Recognize(req.Command)
	}
	switch cmd.Kind {
	case command.Skip, command.Back, command.Review, command.Edit:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown command"})
		return
	}
	res, err := s.orchestrator.HandleCommand(r.Context(), chi.URLParam(r, "id"), cmd, correlationID(r, req.CorrelationID))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	state, err := s.orchestrator.GetState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"complete": state.Complete(),
		"fields":   agent.ToDocumentDTO(state),
	})
}

// decode reads a JSON body. An empty body is accepted when optional is set.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	if len(body) == 0 && optional {
		return true
	}
	if err := sonic.ConfigStd.Unmarshal(body, v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, agent.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "conversation not found"})
		return
	}
	s.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func correlationID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return r.Header.Get(IdempotencyHeader)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
