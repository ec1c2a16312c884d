package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"bizassist"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"bizassist"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	EmbedderURL  string `envconfig:"EMBEDDER_URL" default:"http://embedder.local:8000"`
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	AWSRegion    string `envconfig:"AWS_REGION"`
	AWSAccessKey string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	S3Bucket     string `envconfig:"S3_BUCKET"`

	ServerPort           int    `envconfig:"SERVER_PORT" default:"8082"`
	MigrationPath        string `envconfig:"MIGRATION_PATH" default:"file://migrations"`
	IngestionConcurrency int    `envconfig:"INGESTION_CONCURRENCY" default:"4"`
	MaxUploadSizeMB      int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`

	// Pipeline defaults. These are the tenant-config fallbacks and the
	// retry budget; they are injected into the settings resolver and the
	// ingestion worker so tests can override them.
	DefaultChunkSize      int    `envconfig:"DEFAULT_CHUNK_SIZE" default:"100"`
	DefaultChunkOverlap   int    `envconfig:"DEFAULT_CHUNK_OVERLAP" default:"20"`
	DefaultEmbeddingModel string `envconfig:"DEFAULT_EMBEDDING_MODEL" default:"BAAI/bge-small-en-v1.5"`
	DefaultEmbeddingDim   int    `envconfig:"DEFAULT_EMBEDDING_DIM" default:"1024"`
	MaxRetries            int    `envconfig:"INGESTION_MAX_RETRIES" default:"3"`
	EmbedTimeoutSeconds   int    `envconfig:"EMBED_TIMEOUT_SECONDS" default:"30"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell; a missing .env is not an error.
	_ = godotenv.Load(".env")

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.DefaultChunkSize <= 0 {
		return fmt.Errorf("%w: DEFAULT_CHUNK_SIZE must be positive", ErrMissingRequired)
	}
	if c.DefaultChunkOverlap < 0 || c.DefaultChunkOverlap >= c.DefaultChunkSize {
		return fmt.Errorf("%w: DEFAULT_CHUNK_OVERLAP must be in [0, DEFAULT_CHUNK_SIZE)", ErrMissingRequired)
	}
	if c.DefaultEmbeddingDim <= 0 {
		return fmt.Errorf("%w: DEFAULT_EMBEDDING_DIM must be positive", ErrMissingRequired)
	}
	return nil
}
