package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, t *Task) error {
	query := `
		INSERT INTO ingestion_tasks (business_id, source_type, source_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.BusinessID, t.SourceType, t.SourceID, StatusPending,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	t.Status = StatusPending
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Task, error) {
	query := `
		SELECT id, business_id, source_type, source_id, status, stage, retry_count, details, result, created_at, updated_at
		FROM ingestion_tasks
		WHERE id = $1`

	var t Task
	var stage sql.NullString
	var details, result []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.BusinessID, &t.SourceType, &t.SourceID, &t.Status,
		&stage, &t.RetryCount, &details, &result, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Stage = stage.String
	if len(details) > 0 {
		if err := json.Unmarshal(details, &t.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task details: %w", err)
		}
	}
	if len(result) > 0 {
		if err := json.Unmarshal(result, &t.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task result: %w", err)
		}
	}
	return &t, nil
}

func (r *PostgresRepo) UpdateProgress(ctx context.Context, id, stage string, retry int, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}

	query := `
		UPDATE ingestion_tasks
		SET status = $2, stage = $3, retry_count = $4, details = $5, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, StatusProcessing, stage, retry, payload); err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Complete(ctx context.Context, id string, result map[string]interface{}) error {
	return r.finish(ctx, id, StatusCompleted, result)
}

func (r *PostgresRepo) Fail(ctx context.Context, id string, result map[string]interface{}) error {
	return r.finish(ctx, id, StatusFailed, result)
}

func (r *PostgresRepo) finish(ctx context.Context, id, status string, result map[string]interface{}) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		UPDATE ingestion_tasks
		SET status = $2, stage = $2, result = $3, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, status, payload); err != nil {
		return fmt.Errorf("failed to finish task: %w", err)
	}
	return nil
}

func (r *PostgresRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM ingestion_tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan task count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
