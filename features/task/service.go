package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bizassist/internal/middleware"
	"bizassist/internal/worker"
)

var (
	ErrBusinessNotFound = errors.New("business not found")
	ErrSourceNotFound   = errors.New("source not found")

	// ErrInvalidSourceType is returned for source types the pipeline cannot
	// ingest.
	ErrInvalidSourceType = errors.New("invalid source type")
)

// Publisher publishes a message to a topic. Satisfied by *nsq.Producer.
type Publisher interface {
	Publish(topic string, body []byte) error
}

// SourceValidator checks that the content a task refers to exists before
// the task is accepted.
type SourceValidator interface {
	BusinessExists(ctx context.Context, businessID string) (bool, error)
	SourceExists(ctx context.Context, businessID, sourceType, sourceID string) (bool, error)
}

// Status is the poll response for one task.
type Status struct {
	Ready      bool                   `json:"ready"`
	Successful bool                   `json:"successful"`
	Status     string                 `json:"status"`
	Result     map[string]interface{} `json:"result"`
}

type Service struct {
	repo      Repository
	validator SourceValidator
	publisher Publisher
	topic     string
}

func NewService(repo Repository, validator SourceValidator, publisher Publisher, topic string) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		topic:     topic,
	}
}

// Enqueue validates the request, records a pending task and publishes it to
// the ingest topic. The returned task ID is the handle clients poll.
func (s *Service) Enqueue(ctx context.Context, businessID, sourceType, sourceID string) (*Task, error) {
	if sourceType != worker.SourceTypeDocument && sourceType != worker.SourceTypeProduct {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSourceType, sourceType)
	}

	ok, err := s.validator.BusinessExists(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate business: %w", err)
	}
	if !ok {
		return nil, ErrBusinessNotFound
	}

	ok, err = s.validator.SourceExists(ctx, businessID, sourceType, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate source: %w", err)
	}
	if !ok {
		return nil, ErrSourceNotFound
	}

	t := &Task{BusinessID: businessID, SourceType: sourceType, SourceID: sourceID}
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}

	payload := worker.TaskPayload{
		TaskID:        t.ID,
		BusinessID:    businessID,
		SourceType:    sourceType,
		SourceID:      sourceID,
		CorrelationID: middleware.GetCorrelationID(ctx),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}
	if err := s.publisher.Publish(s.topic, body); err != nil {
		// The pending row stays behind as a record of the failed handoff.
		return nil, fmt.Errorf("failed to publish task: %w", err)
	}
	return t, nil
}

// GetStatus reports whether the task has finished and with what result.
// Result is populated only once the task is terminal.
func (s *Service) GetStatus(ctx context.Context, id string) (*Status, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Ready:      t.Terminal(),
		Successful: t.Status == StatusCompleted,
		Status:     t.Status,
	}
	if st.Ready {
		st.Result = t.Result
	}
	return st, nil
}
