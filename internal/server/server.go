// Package server exposes validation, preview and document rendering over
// HTTP.
//
// Routes:
//
//	GET  /health
//	POST /v1/questionnaires/validate   raw text → canonical JSON
//	POST /v1/questionnaires/preview    raw text → view JSON (?format=md for markdown)
//	POST /v1/questionnaires/document   raw text → .docx (?date=YYYY-MM-DD pins the date)
//
// Request bodies are free text: a bare JSON object, a model reply wrapping
// one, or YAML when the request says Content-Type: application/yaml.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"qdesigner/internal/document"
	"qdesigner/internal/extract"
	"qdesigner/internal/logging"
	"qdesigner/internal/model"
	"qdesigner/internal/preview"
)

// DefaultMaxBody caps request bodies.
const DefaultMaxBody = 4 << 20

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Options configures a Server.
type Options struct {
	Logger  *zap.Logger
	Now     func() time.Time
	MaxBody int64
	Creator string
}

// Server is the HTTP API.
type Server struct {
	router  chi.Router
	logger  *zap.Logger
	now     func() time.Time
	maxBody int64
	creator string
}

// New builds a Server with its routes registered.
func New(opts Options) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		logger:  logging.OrNop(opts.Logger),
		now:     opts.Now,
		maxBody: opts.MaxBody,
		creator: opts.Creator,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBody
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			s.logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("dur", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/v1/questionnaires", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/preview", s.handlePreview)
		r.Post("/document", s.handleDocument)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	q, ok := s.decode(w, r)
	if !ok {
		return
	}
	data, err := model.Marshal(q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ENCODE_FAILED", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	q, ok := s.decode(w, r)
	if !ok {
		return
	}
	view, err := preview.Build(q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "PREVIEW_FAILED", err.Error())
		return
	}
	view = view.ExpandAll()
	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, preview.Markdown(view))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	at := s.now()
	if d := r.URL.Query().Get("date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD: "+d)
			return
		}
		at = t
	}
	q, ok := s.decode(w, r)
	if !ok {
		return
	}
	data, err := document.Render(q, document.Options{GeneratedAt: at, Creator: s.creator})
	if err != nil {
		s.logger.Error("render failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "RENDER_FAILED", err.Error())
		return
	}
	w.Header().Set("Content-Type", docxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.FileName(q, at)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decode reads the body as free text, or as YAML when the request says so.
// On failure it writes the error response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*model.Questionnaire, bool) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
		return nil, false
	}

	format := extract.Text
	if isYAML(r.Header.Get("Content-Type")) {
		format = extract.YAML
	}
	q, err := extract.Decode(body, format)
	if extract.IsExtraction(err) {
		writeError(w, http.StatusBadRequest, "EXTRACTION_FAILED", err.Error())
		return nil, false
	}
	if errors.Is(err, model.ErrSyntax) {
		writeError(w, http.StatusBadRequest, "PARSE_FAILED", err.Error())
		return nil, false
	}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusUnprocessableEntity, violationsResponse{
			Error:      "questionnaire is invalid",
			Code:       "INVALID_QUESTIONNAIRE",
			Violations: ve.Violations,
		})
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_QUESTIONNAIRE", err.Error())
		return nil, false
	}
	return q, true
}

func isYAML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "yaml")
}
