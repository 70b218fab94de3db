package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/repository"
	"github.com/m-mizutani/sensei/pkg/usecase/chat"
	"github.com/m-mizutani/sensei/pkg/usecase/ingest"
	"github.com/m-mizutani/sensei/pkg/usecase/quiz"
	"github.com/m-mizutani/sensei/pkg/usecase/topic"
	"github.com/m-mizutani/sensei/pkg/utils/logging"
)

const (
	defaultMaxUploadSize = 32 << 20
	internalErrorMessage = "An internal error occurred."
)

// UseCases are the operations exposed over HTTP
type UseCases struct {
	Chat     *chat.UseCase
	Topic    *topic.UseCase
	Quiz     *quiz.UseCase
	Ingest   *ingest.UseCase
	Messages repository.MessageStore
}

type Server struct {
	router        *chi.Mux
	uc            UseCases
	mcp           http.Handler
	maxUploadSize int64
}

// Option is a functional option for Server
type Option func(*Server)

// WithMCPHandler mounts an MCP streamable HTTP handler at /mcp
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

// WithMaxUploadSize limits the size of multipart uploads
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) {
		s.maxUploadSize = n
	}
}

func New(uc UseCases, opts ...Option) *Server {
	s := &Server{
		uc:            uc,
		maxUploadSize: defaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/", s.root)
	router.Get("/health", s.health)
	router.Post("/chat", s.chat)
	router.Post("/messages", s.addMessage)
	router.Post("/ingest/text", s.ingestText)
	router.Post("/ingest/pdf", s.ingestPDF)
	router.Get("/topics", s.listTopics)
	router.Post("/assessment/start", s.startAssessment)
	router.Post("/assessment/answer", s.answerAssessment)
	if s.mcp != nil {
		router.Handle("/mcp", s.mcp)
	}

	s.router = router
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.From(ctx).Info("API server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return goerr.Wrap(err, "failed to serve", goerr.V("addr", addr))
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shutdown server")
		}
		return nil
	}
}

// requestLogger puts a logger tagged with the request ID into the context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.From(ctx).With("request_id", middleware.GetReqID(ctx))
		ctx = logging.With(ctx, logger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps tagged errors to 400 and 404. Anything else is logged
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case model.IsBadRequest(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case model.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		logging.From(r.Context()).Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: internalErrorMessage})
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "invalid JSON body", goerr.T(model.ErrTagBadRequest))
	}
	return nil
}
