package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ServiceError reports a failed call to the embedding service: transport
// failure, non-2xx status, or a malformed/misaligned response body. The
// upstream detail is carried when available. The client never retries; the
// ingestion worker owns the retry policy.
type ServiceError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding service error: %v", e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("embedding service error: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("embedding service error: status %d", e.StatusCode)
}

func (e *ServiceError) Unwrap() error { return e.Err }

const generatePath = "/api/v1/embeddings/generate"

// Client calls the in-house embedding service over HTTP. One invocation is
// one upstream call; the caller supplies the full chunk list.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Texts          []string `json:"texts"`
	EmbeddingModel string   `json:"embedding_model"`
	EmbeddingDim   int      `json:"embedding_dim"`
}

type generateResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// BatchEmbed returns one vector per input text, positionally aligned.
func (c *Client) BatchEmbed(ctx context.Context, texts []string, model string, dim int) ([][]float32, error) {
	body, err := json.Marshal(generateRequest{
		Texts:          texts,
		EmbeddingModel: model,
		EmbeddingDim:   dim,
	})
	if err != nil {
		return nil, &ServiceError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ServiceError{StatusCode: resp.StatusCode, Detail: string(bytes.TrimSpace(detail))}
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed response body: %w", err)}
	}

	if len(result.Embeddings) != len(texts) {
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Detail:     fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(result.Embeddings)),
		}
	}

	return result.Embeddings, nil
}
