// Package server exposes the converter over HTTP as a multipart upload
// endpoint.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/visionmark/visionmark/internal/domain"
	"github.com/visionmark/visionmark/internal/observability"
)

// Converter turns a document on disk into ordered per-page markdown.
type Converter interface {
	Convert(ctx context.Context, path string) ([]domain.PageResult, error)
}

// Server handles document upload requests.
type Server struct {
	converter Converter
	logger    *observability.Logger
	router    chi.Router
}

// pageResponse is one element of the upload response body.
type pageResponse struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds a Server around the given converter.
func New(converter Converter, logger *observability.Logger) *Server {
	if logger == nil {
		logger = observability.Nop()
	}
	s := &Server{
		converter: converter,
		logger:    logger.WithComponent("server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/", s.handleConvert)
	s.router = r

	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the server on addr and blocks.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("listening")
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	// The converter works on paths, so spool the upload to a temp file
	// that keeps the original extension.
	ext := strings.ToLower(filepath.Ext(header.Filename))
	tmp, err := os.CreateTemp("", "visionmark-*"+ext)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create temp file")
		s.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		s.logger.Error().Err(err).Msg("failed to write upload")
		s.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if err := tmp.Close(); err != nil {
		s.logger.Error().Err(err).Msg("failed to close temp file")
		s.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	results, err := s.converter.Convert(r.Context(), tmpPath)
	if err != nil {
		s.logger.Error().Err(err).Str("filename", header.Filename).Msg("conversion failed")
		s.writeError(w, statusFor(err), err.Error())
		return
	}

	pages := make([]pageResponse, len(results))
	for i, res := range results {
		pages[i] = pageResponse{Page: res.PageIndex + 1, Content: res.Markdown}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(pages); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func statusFor(err error) int {
	switch {
	case domain.IsUnsupportedFormat(err):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode error response")
	}
}
