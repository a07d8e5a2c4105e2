package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/engine"
	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/relations"
)

// Server is the HTTP ingress.
type Server struct {
	engine   Engine
	metrics  http.Handler
	validate *validator.Validate
	logger   *zap.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) ServerOption {
	return func(s *Server) { s.metrics = h }
}

// NewServer creates a Server submitting to eng.
func NewServer(eng Engine, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:   eng,
		validate: newValidator(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/actions", s.postActions)
		r.Post("/batches", s.postBatch)
		r.Get("/scene", s.getScene)
		r.Get("/relations", s.getRelations)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) postActions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
		return
	}

	var req actionsRequest
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &req.Actions)
	} else {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_JSON", err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	results, err := s.engine.SubmitActions(r.Context(), req.Actions)
	if err != nil {
		s.submitFailed(w, err)
		return
	}

	resp := actionsResponse{Results: results}
	for _, res := range results {
		if res.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) postBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_JSON", err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	res, err := s.engine.SubmitBatch(r.Context(), req.batch())
	if err != nil {
		s.submitFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getScene(w http.ResponseWriter, r *http.Request) {
	scene := s.engine.Scene()
	if r.URL.Query().Get("live") == "true" {
		scene = scene.Live()
	}
	fp, err := ir.Fingerprint(scene)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	if scene == nil {
		scene = ir.Scene{}
	}
	writeJSON(w, http.StatusOK, sceneResponse{
		Type:        "scenekit",
		Version:     ir.SchemaVersion,
		Source:      ir.Source,
		Fingerprint: fp,
		Elements:    scene,
	})
}

func (s *Server) getRelations(w http.ResponseWriter, r *http.Request) {
	var q relationsQuery
	if raw := r.URL.Query().Get("ids"); raw != "" {
		q.IDs = strings.Split(raw, ",")
	}
	if err := s.validate.Struct(q); err != nil {
		writeValidationError(w, err)
		return
	}

	scene := s.engine.Scene()
	subset := scene.Live()
	if len(q.IDs) > 0 {
		subset = subset[:0:0]
		for _, id := range q.IDs {
			if e, ok := scene.FindLive(strings.TrimSpace(id)); ok {
				subset = append(subset, e)
			}
		}
	}

	rels := relations.Detect(subset, scene)
	if rels == nil {
		rels = []relations.Relationship{}
	}
	writeJSON(w, http.StatusOK, relationsResponse{
		Relationships: rels,
		Context:       relations.Describe(rels, scene),
	})
}

func (s *Server) submitFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "ENGINE_STOPPED", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "CANCELLED", err.Error())
	default:
		s.logger.Error("submit failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:   "request failed validation",
		Code:    "VALIDATION_FAILED",
		Details: validationDetails(err),
	})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
