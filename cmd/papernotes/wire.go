package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Abraxas-365/papernotes/adapters/aws/bedrock"
	"github.com/Abraxas-365/papernotes/adapters/aws/s3/s3source"
	s3storage "github.com/Abraxas-365/papernotes/adapters/aws/s3/s3storage"
	"github.com/Abraxas-365/papernotes/adapters/chromem"
	"github.com/Abraxas-365/papernotes/adapters/gemini"
	"github.com/Abraxas-365/papernotes/adapters/inmemory"
	"github.com/Abraxas-365/papernotes/adapters/localpdf"
	"github.com/Abraxas-365/papernotes/adapters/ollama"
	"github.com/Abraxas-365/papernotes/adapters/openai"
	"github.com/Abraxas-365/papernotes/adapters/pgvectore"
	"github.com/Abraxas-365/papernotes/adapters/postgres"
	"github.com/Abraxas-365/papernotes/adapters/unstructured"
	"github.com/Abraxas-365/papernotes/adapters/web/websource"
	"github.com/Abraxas-365/papernotes/config"
	"github.com/Abraxas-365/papernotes/datasource"
	"github.com/Abraxas-365/papernotes/document"
	"github.com/Abraxas-365/papernotes/embedding"
	"github.com/Abraxas-365/papernotes/extractor"
	"github.com/Abraxas-365/papernotes/ingest"
	"github.com/Abraxas-365/papernotes/llm"
	"github.com/Abraxas-365/papernotes/notes"
	"github.com/Abraxas-365/papernotes/papers"
	"github.com/Abraxas-365/papernotes/pdfedit"
	"github.com/Abraxas-365/papernotes/vectorstore"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

// app holds every component built from the configuration
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *ingest.Pipeline
	vectors  *vectorstore.VectorStore
	schemas  []func(ctx context.Context) error
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// InitDB creates the relational tables and the vector collection
func (a *app) InitDB(ctx context.Context, force bool) error {
	for _, create := range a.schemas {
		if err := create(ctx); err != nil {
			return err
		}
	}
	return a.vectors.InitStore(ctx, force)
}

func build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	model, err := buildLLM(cfg, awsCfg)
	if err != nil {
		return nil, err
	}

	generator, err := notes.NewGenerator(model,
		notes.WithTokenizerModel(cfg.OpenAIChatModel),
		notes.WithMaxPromptTokens(cfg.NotesMaxPromptTokens),
		notes.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	ext, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := a.buildEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	repo, qa, store, err := a.buildStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.vectors = vectorstore.New(store, embedder)

	s3Client := s3.NewFromConfig(awsCfg)
	web := websource.NewWebSource(cfg.FetchTimeout)
	fetcher := datasource.SchemeRouter{
		"http":  web,
		"https": web,
		"s3":    s3source.NewS3Source(s3Client),
	}

	opts := []ingest.Option{
		ingest.WithLogger(logger),
		ingest.WithQARepository(qa),
		ingest.WithMaxPDFBytes(cfg.MaxPDFBytes),
	}
	if cfg.PDFArchiveBucket != "" {
		opts = append(opts, ingest.WithArchive(s3storage.NewS3Store(s3Client, cfg.PDFArchiveBucket)))
	}

	a.pipeline, err = ingest.New(
		fetcher,
		ingest.PageEditorFunc(pdfedit.DeletePages),
		ext,
		generator,
		repo,
		a.vectors,
		opts...,
	)
	if err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

func loadAWSConfig(ctx context.Context, cfg config.Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

func buildLLM(cfg config.Config, awsCfg aws.Config) (llm.LLM, error) {
	switch cfg.LLMProvider {
	case config.ProviderBedrock:
		return bedrock.NewBedrockLLM(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMModelID(cfg.BedrockModel)), nil
	case config.ProviderOpenAI:
		return openai.NewOpenAILLM(cfg.OpenAIAPIKey, cfg.OpenAIChatModel), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
}

func buildExtractor(cfg config.Config) (extractor.Extractor, error) {
	if cfg.Extractor == config.ExtractorLocal {
		splitter := document.NewCharacterSplitter(cfg.ChunkSize, cfg.ChunkOverlap, "\n")
		return localpdf.NewExtractor(splitter), nil
	}
	return unstructured.NewExtractor(cfg.UnstructuredAPIKey, unstructured.WithURL(cfg.UnstructuredAPIURL))
}

func (a *app) buildEmbedder(ctx context.Context, cfg config.Config) (embedding.Embedder, error) {
	switch cfg.Embedder {
	case config.EmbedderOllama:
		return ollama.NewOllamaEmbedder(cfg.OllamaHost, embedding.WithModel(cfg.OllamaModel))
	case config.EmbedderGemini:
		e, err := gemini.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, embedding.WithModel(cfg.GeminiModel))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { e.Close() })
		return e, nil
	case config.EmbedderOpenAI:
		return openai.NewOpenAIEmbedder(cfg.OpenAIAPIKey, embedding.WithModel(cfg.OpenAIEmbeddingModel)), nil
	}
	return nil, fmt.Errorf("unknown embedder %q", cfg.Embedder)
}

// buildStores uses in-memory tables for a dry run; chromem works either way
func (a *app) buildStores(ctx context.Context, cfg config.Config) (papers.Repository, papers.QARepository, vectorstore.Store, error) {
	var vectors vectorstore.Store
	if cfg.VectorStore == config.VectorStoreChromem {
		store, err := chromem.NewChromemStore(cfg.ChromemPath, cfg.EmbeddingsTable)
		if err != nil {
			return nil, nil, nil, err
		}
		vectors = store
	}

	if cfg.DryRun {
		mem := inmemory.NewPaperRepository()
		if vectors == nil {
			vectors = inmemory.NewVectorStore()
		}
		return mem, mem, vectors, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error creating connection pool: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error opening database: %w", err)
	}
	a.closers = append(a.closers, func() { db.Close() })

	repo, err := postgres.NewPaperRepository(pool)
	if err != nil {
		return nil, nil, nil, err
	}
	qa, err := postgres.NewQARepository(db)
	if err != nil {
		return nil, nil, nil, err
	}
	a.schemas = append(a.schemas, repo.InitSchema, qa.InitSchema)

	if vectors == nil {
		store, err := pgvectore.NewPGVectorStoreWithPool(pool, pgvectore.Options{
			TableName: cfg.EmbeddingsTable,
			Dimension: cfg.EmbeddingDimension,
			Distance:  pgvectore.Cosine,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		vectors = store
	}

	return repo, qa, vectors, nil
}
