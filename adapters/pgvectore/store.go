package pgvectore

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/papernotes/vectorstore"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Distance represents the distance calculation method
type Distance string

const (
	Cosine       Distance = "cosine"
	Euclidean    Distance = "euclidean"
	InnerProduct Distance = "inner_product"
)

// IsValid checks if the distance metric is valid
func (d Distance) IsValid() bool {
	switch d {
	case Cosine, Euclidean, InnerProduct:
		return true
	default:
		return false
	}
}

const storeName = "pgvector"

type PGVectorStore struct {
	pool      *pgxpool.Pool
	tableName string
	dimension int
	distance  Distance
}

type Options struct {
	TableName string
	Dimension int
	Distance  Distance
}

// getOperatorAndFunction returns the appropriate operator and index operator class based on distance metric
func (p *PGVectorStore) getOperatorAndFunction() (string, string) {
	switch p.distance {
	case Euclidean:
		return "<->", "vector_l2_ops"
	case InnerProduct:
		return "<#>", "vector_ip_ops"
	default: // Cosine
		return "<=>", "vector_cosine_ops"
	}
}

// NewPGVectorStore opens its own pool on connString
func NewPGVectorStore(ctx context.Context, connString string, opts Options) (*PGVectorStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("error parsing connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}

	return NewPGVectorStoreWithPool(pool, opts)
}

// NewPGVectorStoreWithPool shares an existing pool, e.g. the one used for the papers table
func NewPGVectorStoreWithPool(pool *pgxpool.Pool, opts Options) (*PGVectorStore, error) {
	if opts.Distance == "" {
		opts.Distance = Cosine
	}
	if !opts.Distance.IsValid() {
		return nil, fmt.Errorf("invalid distance metric: %s", opts.Distance)
	}
	if opts.TableName == "" {
		opts.TableName = vectorstore.DefaultCollection
	}
	if !isIdentifier(opts.TableName) {
		return nil, fmt.Errorf("invalid table name: %q", opts.TableName)
	}
	if opts.Dimension <= 0 {
		opts.Dimension = 1536
	}

	return &PGVectorStore{
		pool:      pool,
		tableName: opts.TableName,
		dimension: opts.Dimension,
		distance:  opts.Distance,
	}, nil
}

// InitDB initializes the database schema
func (p *PGVectorStore) InitDB(ctx context.Context, forceRecreate bool) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return vectorstore.NewInitFailedError(storeName, fmt.Errorf("error creating vector extension: %w", err))
	}

	if forceRecreate {
		if _, err := p.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", p.tableName)); err != nil {
			return vectorstore.NewInitFailedError(storeName, fmt.Errorf("error dropping table: %w", err))
		}
	}

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`, p.tableName, p.dimension)

	if _, err := p.pool.Exec(ctx, createTableSQL); err != nil {
		return vectorstore.NewInitFailedError(storeName, fmt.Errorf("error creating table: %w", err))
	}

	_, opClass := p.getOperatorAndFunction()
	indexSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING hnsw (embedding %s)
	`, p.tableName, p.tableName, opClass)

	if _, err := p.pool.Exec(ctx, indexSQL); err != nil {
		return vectorstore.NewInitFailedError(storeName, fmt.Errorf("error creating index: %w", err))
	}

	sourceIdxSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_source_idx ON %s ((metadata->>'source'))
	`, p.tableName, p.tableName)
	if _, err := p.pool.Exec(ctx, sourceIdxSQL); err != nil {
		return vectorstore.NewInitFailedError(storeName, fmt.Errorf("error creating source index: %w", err))
	}

	return nil
}

func (p *PGVectorStore) AddDocuments(ctx context.Context, docs []vectorstore.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return vectorstore.NewInvalidDimensionsError(storeName, len(docs), len(vectors))
	}

	batch := &pgx.Batch{}
	insertSQL := fmt.Sprintf(`
		INSERT INTO %s (content, metadata, embedding)
		VALUES ($1, $2, $3::vector)
	`, p.tableName)

	for i, doc := range docs {
		if len(vectors[i]) != p.dimension {
			return vectorstore.NewInvalidDimensionsError(storeName, p.dimension, len(vectors[i]))
		}
		batch.Queue(insertSQL, doc.PageContent, doc.Metadata, pgvector.NewVector(vectors[i]))
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(docs); i++ {
		if _, err := results.Exec(); err != nil {
			return vectorstore.NewAddFailedError(storeName, fmt.Errorf("error inserting document %d: %w", i, err))
		}
	}

	return nil
}

func (p *PGVectorStore) SimilaritySearch(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Document, error) {
	operator, _ := p.getOperatorAndFunction()

	args := []interface{}{pgvector.NewVector(vector), limit}
	where, args := whereClause(filter, args)

	var scoreExpr string
	switch p.distance {
	case InnerProduct:
		scoreExpr = fmt.Sprintf("(embedding %s $1::vector) * -1", operator)
	case Euclidean:
		scoreExpr = fmt.Sprintf("1 / (1 + (embedding %s $1::vector))", operator)
	default:
		scoreExpr = fmt.Sprintf("1 - (embedding %s $1::vector)", operator)
	}

	query := fmt.Sprintf(`
		SELECT content, metadata, %s AS similarity
		FROM %s
		%s
		ORDER BY embedding %s $1::vector
		LIMIT $2
	`, scoreExpr, p.tableName, where, operator)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, vectorstore.NewSearchFailedError(storeName, err)
	}
	defer rows.Close()

	var docs []vectorstore.Document
	for rows.Next() {
		var doc vectorstore.Document
		var score float64
		if err := rows.Scan(&doc.PageContent, &doc.Metadata, &score); err != nil {
			return nil, vectorstore.NewSearchFailedError(storeName, fmt.Errorf("error scanning row: %w", err))
		}
		doc.Score = float32(score)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, vectorstore.NewSearchFailedError(storeName, err)
	}

	return docs, nil
}

func (p *PGVectorStore) Delete(ctx context.Context, filter vectorstore.Filter) error {
	where, args := whereClause(filter, nil)
	query := fmt.Sprintf("DELETE FROM %s %s", p.tableName, where)

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return vectorstore.NewDeleteFailedError(storeName, err)
	}
	return nil
}

// Close closes the database connection pool
func (p *PGVectorStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// whereClause builds metadata equality conditions, appending key and value
// parameters after the ones already in args.
func whereClause(filter vectorstore.Filter, args []interface{}) (string, []interface{}) {
	if len(filter) == 0 {
		return "", args
	}

	conditions := make([]string, 0, len(filter))
	for key, value := range filter {
		args = append(args, key, fmt.Sprint(value))
		conditions = append(conditions, fmt.Sprintf("metadata->>$%d = $%d", len(args)-1, len(args)))
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
