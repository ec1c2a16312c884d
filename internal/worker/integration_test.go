package worker_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizassist/features/business"
	"bizassist/features/embedding"
	"bizassist/features/product"
	"bizassist/features/task"
	"bizassist/internal/settings"
	"bizassist/internal/testutils"
	"bizassist/internal/worker"
)

// fixedEmbedder returns deterministic vectors without hitting a real
// embedding service.
type fixedEmbedder struct {
	dim int
}

func (f *fixedEmbedder) BatchEmbed(_ context.Context, texts []string, _ string, _ int) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		for j := range v {
			v[j] = float32(i + 1)
		}
		out[i] = v
	}
	return out, nil
}

type fixedSelector struct{ e worker.Embedder }

func (s fixedSelector) Select(string) worker.Embedder { return s.e }

type businessFinder struct{ repo business.Repository }

func (a businessFinder) Exists(ctx context.Context, id string) (bool, error) {
	return a.repo.Exists(ctx, id)
}

type productFetcher struct{ repo product.Repository }

func (a productFetcher) GetProduct(ctx context.Context, businessID, id string) (*worker.ProductInfo, error) {
	p, err := a.repo.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	return &worker.ProductInfo{Name: p.Name, Category: p.Category, Text: p.Text()}, nil
}

type noDocuments struct{}

func (noDocuments) GetDocument(context.Context, string, string) (*worker.DocumentInfo, error) {
	return nil, nil
}

type noBlobs struct{}

func (noBlobs) Fetch(context.Context, string) ([]byte, error) { return nil, nil }

type noExtract struct{}

func (noExtract) Text([]byte, string) (string, error) { return "", nil }

type configResolver struct{ svc *settings.Service }

func (a configResolver) ChunkingFor(ctx context.Context, businessID, entityType string) (worker.ChunkingConfig, error) {
	cs, err := a.svc.Chunking(ctx, businessID, entityType)
	if err != nil {
		return worker.ChunkingConfig{}, err
	}
	return worker.ChunkingConfig{ChunkSize: cs.ChunkSize, ChunkOverlap: cs.ChunkOverlap}, nil
}

func (a configResolver) BotFor(ctx context.Context, businessID string) (worker.BotConfig, error) {
	bs, err := a.svc.Bot(ctx, businessID)
	if err != nil {
		return worker.BotConfig{}, err
	}
	return worker.BotConfig{EmbeddingModel: bs.EmbeddingModel, EmbeddingDim: bs.EmbeddingDim}, nil
}

type embeddingWriter struct{ repo embedding.Repository }

func (a embeddingWriter) ReplaceEmbeddings(ctx context.Context, businessID, sourceType, sourceID string, batch []worker.EmbeddingRecord) ([]string, error) {
	key := embedding.SourceKey{BusinessID: businessID, SourceType: sourceType, SourceID: sourceID}
	rows := make([]embedding.Embedding, len(batch))
	for i, rec := range batch {
		rows[i] = embedding.NewRow(rec.ChunkIndex, rec.Content, rec.Vector, rec.Metadata)
	}
	return a.repo.ReplaceBatch(ctx, key, rows)
}

type progressRecorder struct{ repo task.Repository }

func (a progressRecorder) Progress(ctx context.Context, taskID, stage string, retry int, details map[string]interface{}) error {
	return a.repo.UpdateProgress(ctx, taskID, stage, retry, details)
}

func (a progressRecorder) Complete(ctx context.Context, taskID string, result map[string]interface{}) error {
	return a.repo.Complete(ctx, taskID, result)
}

func (a progressRecorder) Fail(ctx context.Context, taskID string, result map[string]interface{}) error {
	return a.repo.Fail(ctx, taskID, result)
}

func TestIngestIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	ctx := context.Background()

	// 1. Setup dependencies
	businessRepo := business.NewPostgresRepo(s.DB)
	productRepo := product.NewPostgresRepo(s.DB)
	embeddingRepo := embedding.NewPostgresRepo(s.DB)
	taskRepo := task.NewPostgresRepo(s.DB)
	settingsService := settings.NewService(settings.NewPostgresRepo(s.DB), settings.Defaults{
		ChunkSize:      4,
		ChunkOverlap:   1,
		EmbeddingModel: "test-model",
		EmbeddingDim:   3,
	})

	// 2. Seed a business and a product
	biz := &business.Business{Name: "Corner Cafe"}
	require.NoError(t, businessRepo.Save(ctx, biz))

	prod := &product.Product{
		BusinessID:  biz.ID,
		Name:        "Flat White",
		Description: "double shot espresso with silky steamed milk",
		Category:    "coffee",
		Price:       4.5,
	}
	require.NoError(t, productRepo.Save(ctx, prod))

	tk := &task.Task{BusinessID: biz.ID, SourceType: worker.SourceTypeProduct, SourceID: prod.ID}
	require.NoError(t, taskRepo.Save(ctx, tk))

	// 3. Store tenant settings, saving chunking twice so the second write
	// takes the conflict-update path of the upsert
	require.NoError(t, settingsService.SaveChunking(ctx, &settings.ChunkingSettings{
		BusinessID: biz.ID, EntityType: worker.SourceTypeProduct, ChunkSize: 3, ChunkOverlap: 0,
	}))
	require.NoError(t, settingsService.SaveChunking(ctx, &settings.ChunkingSettings{
		BusinessID: biz.ID, EntityType: worker.SourceTypeProduct, ChunkSize: 5, ChunkOverlap: 2,
	}))
	require.NoError(t, settingsService.SaveBot(ctx, &settings.BotSettings{
		BusinessID: biz.ID, EmbeddingModel: "test-model", EmbeddingDim: 3,
	}))

	cs, err := settingsService.Chunking(ctx, biz.ID, worker.SourceTypeProduct)
	require.NoError(t, err)
	assert.False(t, cs.IsDefault)
	assert.Equal(t, 5, cs.ChunkSize)
	assert.Equal(t, 2, cs.ChunkOverlap)

	bs, err := settingsService.Bot(ctx, biz.ID)
	require.NoError(t, err)
	assert.False(t, bs.IsDefault)
	assert.Equal(t, "test-model", bs.EmbeddingModel)
	assert.Equal(t, 3, bs.EmbeddingDim)

	// 4. Run the pipeline
	pipeline := worker.NewPipeline(
		businessFinder{repo: businessRepo},
		noDocuments{},
		productFetcher{repo: productRepo},
		configResolver{svc: settingsService},
		noBlobs{},
		noExtract{},
		fixedSelector{e: &fixedEmbedder{dim: 3}},
		embeddingWriter{repo: embeddingRepo},
		progressRecorder{repo: taskRepo},
	)
	consumer := worker.NewIngestConsumer(pipeline, progressRecorder{repo: taskRepo}, 3)

	payload, err := json.Marshal(worker.TaskPayload{
		TaskID:     tk.ID,
		BusinessID: biz.ID,
		SourceType: worker.SourceTypeProduct,
		SourceID:   prod.ID,
	})
	require.NoError(t, err)

	msg := nsq.NewMessage(nsq.MessageID{}, payload)
	msg.Attempts = 1
	require.NoError(t, consumer.HandleMessage(msg))

	// 5. Task reached completed with a result payload built from the
	// tenant-specific chunking window
	var done *task.Task
	require.Eventually(t, func() bool {
		done, err = taskRepo.Get(ctx, tk.ID)
		return err == nil && done.Status == task.StatusCompleted
	}, 10*time.Second, 100*time.Millisecond)

	created, ok := done.Result["embeddings_created"].(float64)
	require.True(t, ok)
	assert.Greater(t, created, 0.0)
	assert.Equal(t, 5.0, done.Result["chunk_size"])
	assert.Equal(t, 2.0, done.Result["chunk_overlap"])

	// 6. Embeddings are queryable by source, with contiguous indexes
	key := embedding.SourceKey{BusinessID: biz.ID, SourceType: worker.SourceTypeProduct, SourceID: prod.ID}
	rows, err := embeddingRepo.ListBySource(ctx, key)
	require.NoError(t, err)
	require.Len(t, rows, int(created))
	for i, row := range rows {
		assert.Equal(t, i, row.ChunkIndex)
		assert.Equal(t, "test-model", row.Metadata["model_used"])
	}

	// 7. Re-running the task replaces, not appends
	require.NoError(t, consumer.HandleMessage(nsq.NewMessage(nsq.MessageID{}, payload)))
	count, err := embeddingRepo.CountBySource(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, len(rows), count)
}
