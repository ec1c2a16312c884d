package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bizassist/internal/text"
)

// Pipeline runs one ingestion task end to end: validate the business,
// resolve configuration, turn the source into text, chunk it, embed the
// chunks and persist the vectors as a single batch.
type Pipeline struct {
	businesses BusinessFinder
	documents  DocumentFetcher
	products   ProductFetcher
	configs    ConfigResolver
	blobs      BlobFetcher
	extractor  TextExtractor
	embedders  EmbedderSelector
	writer     EmbeddingWriter
	progress   ProgressRecorder
}

// TextExtractor converts raw file bytes into plain text.
type TextExtractor interface {
	Text(data []byte, fileType string) (string, error)
}

func NewPipeline(
	businesses BusinessFinder,
	documents DocumentFetcher,
	products ProductFetcher,
	configs ConfigResolver,
	blobs BlobFetcher,
	extractor TextExtractor,
	embedders EmbedderSelector,
	writer EmbeddingWriter,
	progress ProgressRecorder,
) *Pipeline {
	return &Pipeline{
		businesses: businesses,
		documents:  documents,
		products:   products,
		configs:    configs,
		blobs:      blobs,
		extractor:  extractor,
		embedders:  embedders,
		writer:     writer,
		progress:   progress,
	}
}

// sourceContent is what processing_content produces: the raw text plus the
// denormalized fields saved with each embedding.
type sourceContent struct {
	text   string
	fields map[string]interface{}
}

// Run executes the pipeline stages in order. Errors come back wrapped in
// *StageError; the caller decides retry vs. terminal failure via Classify.
// On success the returned map is the completed-task result payload.
func (p *Pipeline) Run(ctx context.Context, payload TaskPayload, retry int) (map[string]interface{}, error) {
	start := time.Now()

	p.record(ctx, payload, retry, StageValidatingBusiness, nil)
	ok, err := p.businesses.Exists(ctx, payload.BusinessID)
	if err != nil {
		return nil, &StageError{Stage: StageValidatingBusiness, Err: err}
	}
	if !ok {
		return nil, &StageError{Stage: StageValidatingBusiness, Err: ErrBusinessNotFound}
	}

	p.record(ctx, payload, retry, StageLoadingBotConfig, nil)
	bot, err := p.configs.BotFor(ctx, payload.BusinessID)
	if err != nil {
		return nil, &StageError{Stage: StageLoadingBotConfig, Err: err}
	}

	p.record(ctx, payload, retry, StageLoadingChunking, map[string]interface{}{
		"embedding_model": bot.EmbeddingModel,
	})
	chunking, err := p.configs.ChunkingFor(ctx, payload.BusinessID, payload.SourceType)
	if err != nil {
		return nil, &StageError{Stage: StageLoadingChunking, Err: err}
	}

	p.record(ctx, payload, retry, StageProcessingContent, nil)
	content, err := p.processContent(ctx, payload)
	if err != nil {
		return nil, &StageError{Stage: StageProcessingContent, Err: err}
	}

	p.record(ctx, payload, retry, StageCleaningAndChunking, map[string]interface{}{
		"text_length": len(content.text),
	})
	cleaned := text.Clean(content.text)
	chunks, err := text.Chunk(cleaned, chunking.ChunkSize, chunking.ChunkOverlap)
	if err != nil {
		return nil, &StageError{Stage: StageCleaningAndChunking, Err: err}
	}

	p.record(ctx, payload, retry, StageGenerating, map[string]interface{}{
		"embedding_model": bot.EmbeddingModel,
		"chunk_count":     len(chunks),
	})
	var vectors [][]float32
	if len(chunks) > 0 {
		vectors, err = p.embedders.Select(bot.EmbeddingModel).BatchEmbed(ctx, chunks, bot.EmbeddingModel, bot.EmbeddingDim)
		if err != nil {
			return nil, &StageError{Stage: StageGenerating, Err: err}
		}
		for i, v := range vectors {
			if len(v) != bot.EmbeddingDim {
				return nil, &StageError{Stage: StageGenerating, Err: fmt.Errorf(
					"%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(v), bot.EmbeddingDim)}
			}
		}
	}

	p.record(ctx, payload, retry, StageSaving, map[string]interface{}{
		"chunk_count": len(chunks),
	})
	processedAt := time.Now().UTC().Format(time.RFC3339)
	batch := make([]EmbeddingRecord, len(chunks))
	for i, chunk := range chunks {
		meta := map[string]interface{}{
			"source_type":  payload.SourceType,
			"source_id":    payload.SourceID,
			"chunk_index":  i,
			"model_used":   bot.EmbeddingModel,
			"processed_at": processedAt,
		}
		for k, v := range content.fields {
			meta[k] = v
		}
		batch[i] = EmbeddingRecord{
			ChunkIndex: i,
			Content:    chunk,
			Vector:     vectors[i],
			Metadata:   meta,
		}
	}
	ids, err := p.writer.ReplaceEmbeddings(ctx, payload.BusinessID, payload.SourceType, payload.SourceID, batch)
	if err != nil {
		return nil, &StageError{Stage: StageSaving, Err: err}
	}

	result := map[string]interface{}{
		"status":             StageCompleted,
		"task_id":            payload.TaskID,
		"business_id":        payload.BusinessID,
		"source_type":        payload.SourceType,
		"source_id":          payload.SourceID,
		"embeddings_created": len(ids),
		"embedding_ids":      ids,
		"embedding_model":    bot.EmbeddingModel,
		"chunk_size":         chunking.ChunkSize,
		"chunk_overlap":      chunking.ChunkOverlap,
		"retry_count":        retry,
		"processing_time":    time.Since(start).Seconds(),
	}
	return result, nil
}

func (p *Pipeline) processContent(ctx context.Context, payload TaskPayload) (*sourceContent, error) {
	switch payload.SourceType {
	case SourceTypeDocument:
		doc, err := p.documents.GetDocument(ctx, payload.BusinessID, payload.SourceID)
		if err != nil {
			return nil, err
		}
		data, err := p.blobs.Fetch(ctx, doc.BlobRef)
		if err != nil {
			return nil, err
		}
		extracted, err := p.extractor.Text(data, doc.Type)
		if err != nil {
			return nil, err
		}
		return &sourceContent{
			text: extracted,
			fields: map[string]interface{}{
				"document_name": doc.Name,
				"document_type": doc.Type,
			},
		}, nil

	case SourceTypeProduct:
		prod, err := p.products.GetProduct(ctx, payload.BusinessID, payload.SourceID)
		if err != nil {
			return nil, err
		}
		fields := map[string]interface{}{
			"product_name": prod.Name,
		}
		if prod.Category != "" {
			fields["product_category"] = prod.Category
		}
		return &sourceContent{text: prod.Text, fields: fields}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, payload.SourceType)
	}
}

func (p *Pipeline) record(ctx context.Context, payload TaskPayload, retry int, stage string, details map[string]interface{}) {
	if err := p.progress.Progress(ctx, payload.TaskID, stage, retry, details); err != nil {
		// Progress is advisory; losing an update must not fail the task.
		slog.WarnContext(ctx, "failed to record progress", "error", err, "task_id", payload.TaskID, "stage", stage)
	}
	slog.InfoContext(ctx, "ingestion stage", "stage", stage,
		"task_id", payload.TaskID, "business_id", payload.BusinessID,
		"source_type", payload.SourceType, "source_id", payload.SourceID,
		"retry_count", retry)
}
