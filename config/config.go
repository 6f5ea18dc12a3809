// Package config reads process configuration once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/papernotes/paper"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"

	ExtractorUnstructured = "unstructured"
	ExtractorLocal        = "local"

	VectorStorePGVector = "pgvector"
	VectorStoreChromem  = "chromem"

	EmbedderOpenAI = "openai"
	EmbedderOllama = "ollama"
	EmbedderGemini = "gemini"
)

type Config struct {
	DatabaseURL string `yaml:"database_url"`
	Addr        string `yaml:"addr"`
	DryRun      bool   `yaml:"dry_run"`

	// llm
	LLMProvider     string `yaml:"llm_provider"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIChatModel string `yaml:"openai_chat_model"`
	BedrockModel    string `yaml:"bedrock_model"`
	AWSRegion       string `yaml:"aws_region"`

	// extraction
	Extractor          string `yaml:"extractor"`
	UnstructuredAPIKey string `yaml:"unstructured_api_key"`
	UnstructuredAPIURL string `yaml:"unstructured_api_url"`
	ChunkSize          int    `yaml:"chunk_size"`
	ChunkOverlap       int    `yaml:"chunk_overlap"`

	// embeddings
	Embedder             string `yaml:"embedder"`
	OpenAIEmbeddingModel string `yaml:"openai_embedding_model"`
	OllamaHost           string `yaml:"ollama_host"`
	OllamaModel          string `yaml:"ollama_model"`
	GeminiAPIKey         string `yaml:"gemini_api_key"`
	GeminiModel          string `yaml:"gemini_model"`

	// vectors
	VectorStore        string `yaml:"vector_store"`
	EmbeddingsTable    string `yaml:"embeddings_table"`
	EmbeddingDimension int    `yaml:"embedding_dimension"`
	ChromemPath        string `yaml:"chromem_path"`

	PDFArchiveBucket     string        `yaml:"pdf_archive_bucket"`
	FetchTimeout         time.Duration `yaml:"fetch_timeout"`
	MaxPDFBytes          int64         `yaml:"max_pdf_bytes"`
	NotesMaxPromptTokens int           `yaml:"notes_max_prompt_tokens"`
}

// Load reads .env and the environment, then overlays the YAML file at path
// when path is not empty.
func Load(path string) (Config, error) {
	godotenv.Load()

	cfg := Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Addr:        getEnv("ADDR", ":8080"),
		DryRun:      getEnvBool("PAPERNOTES_DRY_RUN", false),

		LLMProvider:     getEnv("LLM_PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIChatModel: getEnv("OPENAI_CHAT_MODEL", "gpt-4-1106-preview"),
		BedrockModel:    getEnv("BEDROCK_MODEL", "anthropic.claude-3-sonnet-20240229-v1:0"),
		AWSRegion:       getEnv("AWS_REGION", ""),

		Extractor:          getEnv("EXTRACTOR", ExtractorUnstructured),
		UnstructuredAPIKey: getEnv("UNSTRUCTURED_API_KEY", ""),
		UnstructuredAPIURL: getEnv("UNSTRUCTURED_API_URL", ""),
		ChunkSize:          getEnvInt("CHUNK_SIZE", 2000),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", 200),

		Embedder:             getEnv("EMBEDDER", EmbedderOpenAI),
		OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002"),
		OllamaHost:           getEnv("OLLAMA_HOST", ""),
		OllamaModel:          getEnv("OLLAMA_MODEL", "nomic-embed-text"),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "text-embedding-004"),

		VectorStore:        getEnv("VECTOR_STORE", VectorStorePGVector),
		EmbeddingsTable:    getEnv("EMBEDDINGS_TABLE", "arxiv_embeddings"),
		EmbeddingDimension: getEnvInt("EMBEDDING_DIMENSION", 1536),
		ChromemPath:        getEnv("CHROMEM_PATH", ""),

		PDFArchiveBucket:     getEnv("PDF_ARCHIVE_BUCKET", ""),
		FetchTimeout:         getEnvDuration("FETCH_TIMEOUT", 0),
		MaxPDFBytes:          int64(getEnvInt("MAX_PDF_BYTES", 0)),
		NotesMaxPromptTokens: getEnvInt("NOTES_MAX_PROMPT_TOKENS", 0),
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, paper.NewError(paper.KindConfiguration, "config.Load", "failed to read config file", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, paper.NewError(paper.KindConfiguration, "config.Load", "failed to parse config file "+path, err)
	}

	return cfg, nil
}

// Validate reports every missing credential and unknown backend at once
func (c Config) Validate() error {
	var problems []string

	switch c.LLMProvider {
	case ProviderOpenAI, ProviderBedrock:
	default:
		problems = append(problems, fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	switch c.Extractor {
	case ExtractorUnstructured, ExtractorLocal:
	default:
		problems = append(problems, fmt.Sprintf("unknown EXTRACTOR %q", c.Extractor))
	}
	switch c.Embedder {
	case EmbedderOpenAI, EmbedderOllama, EmbedderGemini:
	default:
		problems = append(problems, fmt.Sprintf("unknown EMBEDDER %q", c.Embedder))
	}
	switch c.VectorStore {
	case VectorStorePGVector, VectorStoreChromem:
	default:
		problems = append(problems, fmt.Sprintf("unknown VECTOR_STORE %q", c.VectorStore))
	}

	if c.OpenAIAPIKey == "" && (c.LLMProvider == ProviderOpenAI || c.Embedder == EmbedderOpenAI) {
		problems = append(problems, "OPENAI_API_KEY is not set")
	}
	if c.UnstructuredAPIKey == "" && c.Extractor != ExtractorLocal {
		problems = append(problems, "UNSTRUCTURED_API_KEY is not set")
	}
	if c.GeminiAPIKey == "" && c.Embedder == EmbedderGemini {
		problems = append(problems, "GEMINI_API_KEY is not set")
	}
	if c.DatabaseURL == "" && !c.DryRun {
		problems = append(problems, "DATABASE_URL is not set")
	}

	if c.ChunkOverlap >= c.ChunkSize && c.Extractor == ExtractorLocal {
		problems = append(problems, "CHUNK_OVERLAP must be smaller than CHUNK_SIZE")
	}

	if len(problems) > 0 {
		return paper.NewError(paper.KindConfiguration, "config.Validate", strings.Join(problems, "; "), nil)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
