// Package ingest runs a paper through fetch, page removal, extraction, note
// generation and persistence.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/Abraxas-365/papernotes/datasource"
	"github.com/Abraxas-365/papernotes/document"
	"github.com/Abraxas-365/papernotes/extractor"
	"github.com/Abraxas-365/papernotes/paper"
	"github.com/Abraxas-365/papernotes/papers"
	"github.com/Abraxas-365/papernotes/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PageEditor removes pages from a PDF
type PageEditor interface {
	DeletePages(pdf []byte, pages []int) ([]byte, error)
}

// PageEditorFunc adapts a function to the PageEditor interface
type PageEditorFunc func(pdf []byte, pages []int) ([]byte, error)

func (f PageEditorFunc) DeletePages(pdf []byte, pages []int) ([]byte, error) {
	return f(pdf, pages)
}

// NoteGenerator produces the notes of a paper from its chunks
type NoteGenerator interface {
	Generate(ctx context.Context, chunks []document.Document) ([]paper.Note, error)
}

// ChunkIndex replaces every chunk stored for a source
type ChunkIndex interface {
	Upsert(ctx context.Context, source string, docs []document.Document) error
}

// QARepository stores answered questions
type QARepository = papers.QARepository

// Result is the outcome of one ingestion run
type Result struct {
	RunID      string       `json:"runId"`
	Record     paper.Record `json:"record"`
	Chunks     int          `json:"chunks"`
	ArchiveKey string       `json:"archiveKey,omitempty"`
}

// Pipeline wires the stages of an ingestion run
type Pipeline struct {
	fetcher   datasource.Fetcher
	editor    PageEditor
	extractor extractor.Extractor
	notes     NoteGenerator
	papers    papers.Repository
	chunks    ChunkIndex
	opts      *Options
}

// New creates a Pipeline. Every stage is required; archive and QA storage are options.
func New(
	fetcher datasource.Fetcher,
	editor PageEditor,
	ext extractor.Extractor,
	notes NoteGenerator,
	repo papers.Repository,
	chunks ChunkIndex,
	opts ...Option,
) (*Pipeline, error) {
	if fetcher == nil || editor == nil || ext == nil || notes == nil || repo == nil || chunks == nil {
		return nil, paper.NewError(paper.KindConfiguration, "ingest.New", "every pipeline stage is required", nil)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Pipeline{
		fetcher:   fetcher,
		editor:    editor,
		extractor: ext,
		notes:     notes,
		papers:    repo,
		chunks:    chunks,
		opts:      options,
	}, nil
}

// Ingest processes one paper. The URL is validated before any I/O.
func (p *Pipeline) Ingest(ctx context.Context, req paper.IngestRequest) (*Result, error) {
	const op = "Ingest"

	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := p.opts.Logger.With("run", runID, "url", req.PaperURL)

	var fetchOpts []datasource.Option
	if p.opts.MaxPDFBytes > 0 {
		fetchOpts = append(fetchOpts, datasource.WithMaxBytes(p.opts.MaxPDFBytes))
	}
	pdf, err := p.fetcher.Fetch(ctx, req.PaperURL, fetchOpts...)
	if err != nil {
		return nil, paper.Wrap(paper.KindNetwork, op, "failed to fetch paper", err)
	}
	log.Info("fetched paper", "bytes", len(pdf))

	if len(req.PagesToDelete) > 0 {
		pdf, err = p.editor.DeletePages(pdf, req.PagesToDelete)
		if err != nil {
			return nil, paper.Wrap(paper.KindValidation, op, "failed to delete pages", err)
		}
		log.Info("deleted pages", "pages", req.PagesToDelete)
	}

	result := &Result{RunID: runID}

	if p.opts.Archive != nil {
		key := archiveKey(p.opts.ArchivePrefix, runID, req.PaperURL)
		if err := p.opts.Archive.Put(ctx, key, bytes.NewReader(pdf),
			storage.WithContentType("application/pdf"),
			storage.WithMetadata(map[string]string{"source": req.PaperURL}),
			storage.WithContentDisposition(fmt.Sprintf("inline; filename=%q", path.Base(key))),
		); err != nil {
			return nil, paper.NewError(paper.KindPersistence, op, "failed to archive paper", err)
		}
		result.ArchiveKey = key
		log.Info("archived paper", "key", key)
	}

	chunks, err := p.extractor.Extract(ctx, pdf)
	if err != nil {
		return nil, paper.Wrap(paper.KindExtraction, op, "failed to extract paper", err)
	}
	log.Info("extracted chunks", "chunks", len(chunks))

	notes, err := p.notes.Generate(ctx, chunks)
	if err != nil {
		return nil, paper.Wrap(paper.KindNetwork, op, "failed to generate notes", err)
	}
	log.Info("generated notes", "notes", len(notes))

	record := paper.NewRecord(paper.NewDocument(req, chunks), notes)
	if err := p.persist(ctx, record, chunks); err != nil {
		return nil, err
	}

	result.Record = record
	result.Chunks = len(chunks)
	return result, nil
}

// persist writes the row and the chunk vectors concurrently. Both writes run to
// completion and the first failure is returned; neither is rolled back.
func (p *Pipeline) persist(ctx context.Context, record paper.Record, chunks []document.Document) error {
	var g errgroup.Group

	g.Go(func() error {
		if err := p.papers.AddPaper(ctx, record); err != nil {
			return paper.NewError(paper.KindPersistence, "persist", "failed to add paper", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := p.chunks.Upsert(ctx, record.ArxivURL, chunks); err != nil {
			return paper.NewError(paper.KindPersistence, "persist", "failed to upsert chunks", err)
		}
		return nil
	})

	return g.Wait()
}

// GetPaper returns the stored paper, or nil when it is missing or the lookup fails
func (p *Pipeline) GetPaper(ctx context.Context, url string) *paper.Record {
	rec, err := p.papers.GetPaper(ctx, url)
	if err != nil {
		p.opts.Logger.Error("failed to get paper", "url", url, "error", err)
		return nil
	}
	if rec == nil {
		p.opts.Logger.Info("paper not found", "url", url)
	}
	return rec
}

// SaveQA stores an answered question
func (p *Pipeline) SaveQA(ctx context.Context, qa paper.QA) error {
	if p.opts.QA == nil {
		return paper.NewError(paper.KindConfiguration, "SaveQA", "no question store configured", nil)
	}
	if err := p.opts.QA.SaveQA(ctx, qa); err != nil {
		return paper.NewError(paper.KindPersistence, "SaveQA", "failed to save question", err)
	}
	return nil
}

// DefaultListLimit bounds list queries that ask for no limit
const DefaultListLimit = 20

// ListPapers returns stored papers, most recently added first
func (p *Pipeline) ListPapers(ctx context.Context, limit int) ([]paper.Record, error) {
	if limit < 1 {
		limit = DefaultListLimit
	}
	recs, err := p.papers.ListPapers(ctx, limit)
	if err != nil {
		return nil, paper.NewError(paper.KindPersistence, "ListPapers", "failed to list papers", err)
	}
	return recs, nil
}

// QuestionAnswers returns stored questions, oldest first
func (p *Pipeline) QuestionAnswers(ctx context.Context, limit int) ([]paper.QA, error) {
	if p.opts.QA == nil {
		return nil, paper.NewError(paper.KindConfiguration, "QuestionAnswers", "no question store configured", nil)
	}
	if limit < 1 {
		limit = DefaultListLimit
	}
	qas, err := p.opts.QA.QuestionAnswers(ctx, limit)
	if err != nil {
		return nil, paper.NewError(paper.KindPersistence, "QuestionAnswers", "failed to list questions", err)
	}
	return qas, nil
}

func archiveKey(prefix, runID, rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		name = u.Path
	}
	return path.Join(prefix, runID, path.Base(name))
}
