package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder generates embeddings through the Gemini API for tenants whose
// bot settings select a gemini-* model instead of the in-house service.
type Embedder struct {
	client *genai.Client
}

func NewEmbedder(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Embedder, error) {
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Embedder{client: client}, nil
}

// BatchEmbed embeds all texts in a single batch request. The dim argument
// is not sent upstream; the model decides the width and the pipeline
// validates it against the tenant's configured dimension.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string, model string, dim int) ([][]float32, error) {
	slog.DebugContext(ctx, "embedding batch via gemini", "model", model, "texts", len(texts))

	em := e.client.EmbeddingModel(model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(res.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(res.Embeddings))
	for i, emb := range res.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding received at index %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (e *Embedder) Close() error {
	return e.client.Close()
}
