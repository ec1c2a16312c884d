package worker

import (
	"database/sql"
	"errors"
	"fmt"

	"bizassist/internal/adapter/blob"
	"bizassist/internal/adapter/embedder"
	"bizassist/internal/extract"
	"bizassist/internal/settings"
	"bizassist/internal/text"
)

var (
	ErrBusinessNotFound  = errors.New("business not found")
	ErrSourceNotFound    = errors.New("source not found")
	ErrUnsupportedSource = errors.New("unsupported source type")

	// ErrDimensionMismatch means the embedding backend returned vectors of
	// a different width than the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// StageError wraps a stage failure with the stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Disposition is the retry decision for a pipeline error.
type Disposition int

const (
	// Retryable errors are transient; the task is re-attempted with backoff.
	Retryable Disposition = iota
	// Fatal errors will not change on retry; the task fails immediately.
	Fatal
)

// Classify decides whether an error is worth retrying. Anything not known
// to be permanent is treated as transient, so infrastructure blips get the
// retry budget and malformed input does not.
func Classify(err error) Disposition {
	var extractErr *extract.ExtractionError
	var chunkErr *text.InvalidChunkConfigError

	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat),
		errors.As(err, &extractErr),
		errors.As(err, &chunkErr),
		errors.Is(err, ErrUnsupportedSource),
		errors.Is(err, ErrBusinessNotFound),
		errors.Is(err, ErrSourceNotFound),
		errors.Is(err, ErrDimensionMismatch),
		errors.Is(err, sql.ErrNoRows),
		errors.Is(err, blob.ErrInvalidReference),
		errors.Is(err, blob.ErrNotFound),
		errors.Is(err, settings.ErrIncompleteDefaults):
		return Fatal
	default:
		return Retryable
	}
}

// Kind names the error category recorded in terminal failure payloads.
func Kind(err error) string {
	var extractErr *extract.ExtractionError
	var chunkErr *text.InvalidChunkConfigError
	var svcErr *embedder.ServiceError

	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return "UnsupportedFormat"
	case errors.As(err, &extractErr):
		return "ExtractionError"
	case errors.As(err, &chunkErr):
		return "InvalidChunkConfig"
	case errors.As(err, &svcErr):
		return "EmbeddingServiceError"
	case errors.Is(err, settings.ErrIncompleteDefaults), errors.Is(err, settings.ErrInvalidSettings):
		return "ConfigurationError"
	case errors.Is(err, ErrBusinessNotFound), errors.Is(err, ErrSourceNotFound), errors.Is(err, sql.ErrNoRows):
		return "SourceNotFound"
	case errors.Is(err, ErrUnsupportedSource):
		return "UnsupportedSource"
	case errors.Is(err, ErrDimensionMismatch):
		return "ConfigurationError"
	case errors.Is(err, blob.ErrInvalidReference), errors.Is(err, blob.ErrNotFound):
		return "ExtractionError"
	default:
		var stageErr *StageError
		if errors.As(err, &stageErr) && stageErr.Stage == StageSaving {
			return "PersistenceError"
		}
		return "IngestionError"
	}
}
