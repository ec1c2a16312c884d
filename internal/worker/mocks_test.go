package worker

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockBusinessFinder struct {
	mock.Mock
}

func (m *MockBusinessFinder) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockDocumentFetcher struct {
	mock.Mock
}

func (m *MockDocumentFetcher) GetDocument(ctx context.Context, businessID, id string) (*DocumentInfo, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DocumentInfo), args.Error(1)
}

type MockProductFetcher struct {
	mock.Mock
}

func (m *MockProductFetcher) GetProduct(ctx context.Context, businessID, id string) (*ProductInfo, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProductInfo), args.Error(1)
}

type MockConfigResolver struct {
	mock.Mock
}

func (m *MockConfigResolver) ChunkingFor(ctx context.Context, businessID, entityType string) (ChunkingConfig, error) {
	args := m.Called(ctx, businessID, entityType)
	return args.Get(0).(ChunkingConfig), args.Error(1)
}

func (m *MockConfigResolver) BotFor(ctx context.Context, businessID string) (BotConfig, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(BotConfig), args.Error(1)
}

type MockBlobFetcher struct {
	mock.Mock
}

func (m *MockBlobFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Text(data []byte, fileType string) (string, error) {
	args := m.Called(data, fileType)
	return args.String(0), args.Error(1)
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) BatchEmbed(ctx context.Context, texts []string, model string, dim int) ([][]float32, error) {
	args := m.Called(ctx, texts, model, dim)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// scriptedEmbedder fails a fixed number of calls before succeeding.
type scriptedEmbedder struct {
	failures int
	calls    int
	err      error
	vectors  [][]float32
}

func (s *scriptedEmbedder) BatchEmbed(_ context.Context, _ []string, _ string, _ int) ([][]float32, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, s.err
	}
	return s.vectors, nil
}

type staticSelector struct {
	embedder Embedder
}

func (s staticSelector) Select(model string) Embedder {
	return s.embedder
}

type MockEmbeddingWriter struct {
	mock.Mock
}

func (m *MockEmbeddingWriter) ReplaceEmbeddings(ctx context.Context, businessID, sourceType, sourceID string, batch []EmbeddingRecord) ([]string, error) {
	args := m.Called(ctx, businessID, sourceType, sourceID, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// recordingProgress keeps every transition in memory so tests can assert on
// the stage sequence and terminal payloads.
type recordingProgress struct {
	stages    []string
	completed map[string]interface{}
	failed    map[string]interface{}
}

func (r *recordingProgress) Progress(_ context.Context, _ string, stage string, _ int, _ map[string]interface{}) error {
	r.stages = append(r.stages, stage)
	return nil
}

func (r *recordingProgress) Complete(_ context.Context, _ string, result map[string]interface{}) error {
	r.completed = result
	return nil
}

func (r *recordingProgress) Fail(_ context.Context, _ string, result map[string]interface{}) error {
	r.failed = result
	return nil
}
