package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Abraxas-365/papernotes/paper"
	"github.com/Abraxas-365/papernotes/papers"
	"github.com/lib/pq"
)

// QARepository stores answered questions through database/sql and lib/pq
type QARepository struct {
	db    *sql.DB
	table string
}

func NewQARepository(db *sql.DB) (*QARepository, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	return &QARepository{db: db, table: papers.QATable}, nil
}

const qaSchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
    id BIGSERIAL PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    context TEXT NOT NULL,
    followup_questions TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

func (r *QARepository) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(qaSchema, r.table))
	return err
}

func (r *QARepository) SaveQA(ctx context.Context, qa paper.QA) error {
	followups := qa.FollowupQuestions
	if followups == nil {
		followups = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (question, answer, context, followup_questions)
		VALUES ($1, $2, $3, $4)
	`, r.table)
	if _, err := r.db.ExecContext(ctx, query, qa.Question, qa.Answer, qa.Context, pq.Array(followups)); err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

// QuestionAnswers returns the stored questions, oldest first
func (r *QARepository) QuestionAnswers(ctx context.Context, limit int) ([]paper.QA, error) {
	query := fmt.Sprintf(`
		SELECT question, answer, context, followup_questions
		FROM %s
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []paper.QA
	for rows.Next() {
		var qa paper.QA
		if err := rows.Scan(&qa.Question, &qa.Answer, &qa.Context, pq.Array(&qa.FollowupQuestions)); err != nil {
			return nil, err
		}
		out = append(out, qa)
	}

	return out, rows.Err()
}
