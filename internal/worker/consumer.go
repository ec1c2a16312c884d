package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"bizassist/internal/middleware"
)

// Action is the outcome of one processing attempt.
type Action int

const (
	// ActionDone means the message is finished, successfully or terminally.
	ActionDone Action = iota
	// ActionRequeue means the message should be re-attempted after a delay.
	ActionRequeue
)

// Backoff returns the delay before the given re-attempt: 60s doubled per
// retry already consumed.
func Backoff(retry int) time.Duration {
	return time.Duration(60*(1<<retry)) * time.Second
}

// IngestConsumer consumes ingestion tasks off the queue and drives the
// pipeline, owning the retry policy.
type IngestConsumer struct {
	pipeline   *Pipeline
	progress   ProgressRecorder
	maxRetries int
}

func NewIngestConsumer(pipeline *Pipeline, progress ProgressRecorder, maxRetries int) *IngestConsumer {
	return &IngestConsumer{
		pipeline:   pipeline,
		progress:   progress,
		maxRetries: maxRetries,
	}
}

func (c *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload TaskPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	// The first delivery is attempt 1, so retries already consumed is one
	// less than the attempt count.
	retry := int(m.Attempts) - 1
	if retry < 0 {
		retry = 0
	}

	action, delay := c.process(ctx, payload, retry)
	if action == ActionRequeue {
		m.RequeueWithoutBackoff(delay)
	}
	return nil
}

// process runs one attempt and decides what happens to the message. It
// returns ActionRequeue with a backoff delay for transient failures inside
// the retry budget; everything else resolves the message, recording a
// terminal failure payload when the attempt did not complete.
func (c *IngestConsumer) process(ctx context.Context, payload TaskPayload, retry int) (Action, time.Duration) {
	result, err := c.pipeline.Run(ctx, payload, retry)
	if err == nil {
		if cerr := c.progress.Complete(ctx, payload.TaskID, result); cerr != nil {
			slog.ErrorContext(ctx, "failed to record task completion", "error", cerr, "task_id", payload.TaskID)
		}
		slog.InfoContext(ctx, "ingestion completed",
			"task_id", payload.TaskID, "business_id", payload.BusinessID,
			"source_type", payload.SourceType, "source_id", payload.SourceID,
			"embeddings_created", result["embeddings_created"], "retry_count", retry)
		return ActionDone, 0
	}

	if Classify(err) == Retryable && retry < c.maxRetries {
		delay := Backoff(retry)
		slog.WarnContext(ctx, "ingestion attempt failed, will retry",
			"error", err, "task_id", payload.TaskID, "retry_count", retry,
			"max_retries", c.maxRetries, "backoff", delay.String())
		return ActionRequeue, delay
	}

	failure := map[string]interface{}{
		"status": StageFailed,
		"error": map[string]interface{}{
			"type":      Kind(err),
			"message":   err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
		"task": map[string]interface{}{
			"task_id":     payload.TaskID,
			"business_id": payload.BusinessID,
			"source_type": payload.SourceType,
			"source_id":   payload.SourceID,
			"retry_count": retry,
			"max_retries": c.maxRetries,
		},
	}
	if ferr := c.progress.Fail(ctx, payload.TaskID, failure); ferr != nil {
		slog.ErrorContext(ctx, "failed to record task failure", "error", ferr, "task_id", payload.TaskID)
	}
	slog.ErrorContext(ctx, "ingestion failed terminally",
		"error", err, "error_type", Kind(err), "task_id", payload.TaskID,
		"business_id", payload.BusinessID, "source_type", payload.SourceType,
		"source_id", payload.SourceID, "retry_count", retry)
	return ActionDone, 0
}
