// Package papers defines the relational persistence of processed papers and
// question/answer pairs.
package papers

import (
	"context"

	"github.com/Abraxas-365/papernotes/paper"
)

// Table names of the relational schema
const (
	PapersTable = "arxiv_papers"
	QATable     = "arxiv_question_answering"
)

// Repository stores one row per processed paper
type Repository interface {
	// AddPaper inserts the row; a duplicate URL is a constraint violation
	AddPaper(ctx context.Context, record paper.Record) error

	// GetPaper returns the row with exactly this URL, or nil when there is none
	GetPaper(ctx context.Context, url string) (*paper.Record, error)

	// ListPapers returns at most limit rows, most recently added first
	ListPapers(ctx context.Context, limit int) ([]paper.Record, error)
}

// QARepository stores answered questions
type QARepository interface {
	SaveQA(ctx context.Context, qa paper.QA) error

	// QuestionAnswers returns at most limit rows, oldest first
	QuestionAnswers(ctx context.Context, limit int) ([]paper.QA, error)
}

// Store is a Repository that also keeps answered questions
type Store interface {
	Repository
	QARepository
}
