package worker

// Source types accepted by the ingestion pipeline.
const (
	SourceTypeDocument = "document"
	SourceTypeProduct  = "product"
)

// Pipeline stages, in execution order. Progress events carry these names.
const (
	StageValidatingBusiness  = "validating_business"
	StageLoadingBotConfig    = "loading_bot_configuration"
	StageLoadingChunking     = "loading_chunking_settings"
	StageProcessingContent   = "processing_content"
	StageCleaningAndChunking = "cleaning_and_chunking"
	StageGenerating          = "generating_embeddings"
	StageSaving              = "saving_to_database"
	StageCompleted           = "completed"
	StageFailed              = "failed"
)

// TaskPayload is the message published to the ingest topic for each
// ingestion task.
type TaskPayload struct {
	TaskID     string `json:"task_id"`
	BusinessID string `json:"business_id"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`

	CorrelationID string `json:"correlation_id"`
}
