package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Abraxas-365/papernotes/paper"
	"github.com/Abraxas-365/papernotes/papers"
)

var _ papers.Store = (*PaperRepository)(nil)

// PaperRepository implements papers.Repository and papers.QARepository in memory
type PaperRepository struct {
	mu     sync.RWMutex
	papers map[string]paper.Record
	order  []string
	qa     []paper.QA
}

// NewPaperRepository creates a new in-memory repository
func NewPaperRepository() *PaperRepository {
	return &PaperRepository{
		papers: make(map[string]paper.Record),
	}
}

func (r *PaperRepository) AddPaper(ctx context.Context, record paper.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.papers[record.ArxivURL]; exists {
		return fmt.Errorf("duplicate key value violates unique constraint: arxiv_url=%s", record.ArxivURL)
	}

	r.papers[record.ArxivURL] = cloneRecord(record)
	r.order = append(r.order, record.ArxivURL)
	return nil
}

func (r *PaperRepository) GetPaper(ctx context.Context, url string) (*paper.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.papers[url]
	if !exists {
		return nil, nil
	}
	out := cloneRecord(record)
	return &out, nil
}

// ListPapers returns the newest rows first; a limit below 1 returns every row
func (r *PaperRepository) ListPapers(ctx context.Context, limit int) ([]paper.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]paper.Record, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, cloneRecord(r.papers[r.order[i]]))
	}
	return out, nil
}

func (r *PaperRepository) SaveQA(ctx context.Context, qa paper.QA) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	qa.FollowupQuestions = append([]string(nil), qa.FollowupQuestions...)
	r.qa = append(r.qa, qa)
	return nil
}

// QuestionAnswers returns the oldest rows first; a limit below 1 returns every row
func (r *PaperRepository) QuestionAnswers(ctx context.Context, limit int) ([]paper.QA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.qa
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]paper.QA, len(rows))
	for i, qa := range rows {
		qa.FollowupQuestions = append([]string(nil), qa.FollowupQuestions...)
		out[i] = qa
	}
	return out, nil
}

func cloneRecord(record paper.Record) paper.Record {
	notes := make([]paper.Note, len(record.Notes))
	for i, n := range record.Notes {
		notes[i] = paper.Note{Note: n.Note, PageNumbers: append([]int(nil), n.PageNumbers...)}
	}
	record.Notes = notes
	return record
}
