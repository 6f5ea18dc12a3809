// Package server exposes the ingestion pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Abraxas-365/papernotes/ingest"
	"github.com/Abraxas-365/papernotes/paper"
	"github.com/Abraxas-365/papernotes/vectorstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultSearchLimit = 4

// Pipeline is the part of ingest.Pipeline the routes use
type Pipeline interface {
	Ingest(ctx context.Context, req paper.IngestRequest) (*ingest.Result, error)
	GetPaper(ctx context.Context, url string) *paper.Record
	ListPapers(ctx context.Context, limit int) ([]paper.Record, error)
	SaveQA(ctx context.Context, qa paper.QA) error
	QuestionAnswers(ctx context.Context, limit int) ([]paper.QA, error)
}

// Searcher finds stored chunks similar to a query
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, limit int, filter vectorstore.Filter) ([]vectorstore.Document, error)
}

type Server struct {
	pipeline Pipeline
	searcher Searcher
	logger   *slog.Logger
}

// New builds the server; searcher may be nil, which disables /search
func New(pipeline Pipeline, searcher Searcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{pipeline: pipeline, searcher: searcher, logger: logger}
}

// Routes returns the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "papernotes"})
	})

	r.Post("/papers", s.handleIngest)
	r.Get("/papers", s.handleGetPaper)
	r.Post("/qa", s.handleSaveQA)
	r.Get("/qa", s.handleListQA)
	if s.searcher != nil {
		r.Get("/search", s.handleSearch)
	}

	return r
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req paper.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.pipeline.Ingest(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res.Record.Notes)
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.handleListPapers(w, r)
		return
	}

	rec := s.pipeline.GetPaper(r.Context(), url)
	if rec == nil {
		writeError(w, http.StatusNotFound, "paper not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 0)
	if !ok {
		return
	}

	recs, err := s.pipeline.ListPapers(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []paper.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleListQA(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 0)
	if !ok {
		return
	}

	qas, err := s.pipeline.QuestionAnswers(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if qas == nil {
		qas = []paper.QA{}
	}
	writeJSON(w, http.StatusOK, qas)
}

func (s *Server) handleSaveQA(w http.ResponseWriter, r *http.Request) {
	var qa paper.QA
	if err := json.NewDecoder(r.Body).Decode(&qa); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if qa.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	if err := s.pipeline.SaveQA(r.Context(), qa); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit, ok := queryLimit(w, r, defaultSearchLimit)
	if !ok {
		return
	}

	var filter vectorstore.Filter
	if src := q.Get("url"); src != "" {
		filter = vectorstore.Filter{"source": src}
	}

	docs, err := s.searcher.SimilaritySearch(r.Context(), query, limit, filter)
	if err != nil {
		s.fail(w, r, paper.Wrap(paper.KindPersistence, "Search", "similarity search failed", err))
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// queryLimit reads the limit query parameter; it writes a 400 and returns false
// when the value is not a positive integer
func queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	s.logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"status", status,
		"error", err,
	)
	writeError(w, status, err.Error())
}

// StatusFor maps an error kind to an HTTP status
func StatusFor(err error) int {
	if errors.Is(err, context.Canceled) {
		return 499
	}
	switch paper.KindOf(err) {
	case paper.KindValidation:
		return http.StatusBadRequest
	case paper.KindNetwork, paper.KindExtraction, paper.KindParsing:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
