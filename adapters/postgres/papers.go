package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Abraxas-365/papernotes/paper"
	"github.com/Abraxas-365/papernotes/papers"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaperRepository stores papers in Postgres through a pgx pool
type PaperRepository struct {
	pool  *pgxpool.Pool
	table string
}

func NewPaperRepository(pool *pgxpool.Pool) (*PaperRepository, error) {
	if pool == nil {
		return nil, errors.New("database connection is required")
	}
	return &PaperRepository{pool: pool, table: papers.PapersTable}, nil
}

const papersSchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
    id BIGSERIAL PRIMARY KEY,
    arxiv_url TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    paper TEXT NOT NULL,
    notes JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

func (r *PaperRepository) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, fmt.Sprintf(papersSchema, r.table))
	return err
}

func (r *PaperRepository) AddPaper(ctx context.Context, record paper.Record) error {
	notes, err := record.NotesJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (arxiv_url, name, paper, notes)
		VALUES ($1, $2, $3, $4)
	`, r.table)
	if _, err := r.pool.Exec(ctx, query, record.ArxivURL, record.Name, record.Paper, notes); err != nil {
		return fmt.Errorf("failed to insert paper: %w", err)
	}
	return nil
}

func (r *PaperRepository) GetPaper(ctx context.Context, url string) (*paper.Record, error) {
	query := fmt.Sprintf(`
		SELECT arxiv_url, name, paper, notes
		FROM %s
		WHERE arxiv_url = $1
	`, r.table)

	var rec paper.Record
	var notesJSON []byte
	err := r.pool.QueryRow(ctx, query, url).Scan(&rec.ArxivURL, &rec.Name, &rec.Paper, &notesJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if len(notesJSON) > 0 {
		if err := json.Unmarshal(notesJSON, &rec.Notes); err != nil {
			return nil, err
		}
	}

	return &rec, nil
}

// ListPapers returns the most recently added papers first
func (r *PaperRepository) ListPapers(ctx context.Context, limit int) ([]paper.Record, error) {
	query := fmt.Sprintf(`
		SELECT arxiv_url, name, paper, notes
		FROM %s
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, r.table)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []paper.Record
	for rows.Next() {
		var rec paper.Record
		var notesJSON []byte
		if err := rows.Scan(&rec.ArxivURL, &rec.Name, &rec.Paper, &notesJSON); err != nil {
			return nil, err
		}
		if len(notesJSON) > 0 {
			if err := json.Unmarshal(notesJSON, &rec.Notes); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}
