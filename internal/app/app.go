package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bizassist/features/business"
	"bizassist/features/document"
	"bizassist/features/embedding"
	"bizassist/features/product"
	"bizassist/features/stats"
	"bizassist/features/task"
	"bizassist/internal/adapter/embedder"
	"bizassist/internal/adapter/gemini"
	"bizassist/internal/config"
	"bizassist/internal/extract"
	"bizassist/internal/middleware"
	"bizassist/internal/settings"
	"bizassist/internal/worker"
)

// TaskPublisher publishes ingestion task payloads. Satisfied by
// *nsq.Producer.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler        http.Handler
	IngestConsumer *worker.IngestConsumer

	cfg *config.Config
}

func New(
	cfg *config.Config,
	db *sql.DB,
	blobStore worker.BlobFetcher,
	docBlobs document.BlobStore,
	taskPub TaskPublisher,
) (*App, error) {

	// Feature: Settings
	settingsRepo := settings.NewPostgresRepo(db)
	settingsService := settings.NewService(settingsRepo, settings.Defaults{
		ChunkSize:      cfg.DefaultChunkSize,
		ChunkOverlap:   cfg.DefaultChunkOverlap,
		EmbeddingModel: cfg.DefaultEmbeddingModel,
		EmbeddingDim:   cfg.DefaultEmbeddingDim,
	})
	settingsHandler := settings.NewHandler(settingsService)

	// Feature: Business
	businessRepo := business.NewPostgresRepo(db)
	businessHandler := business.NewHandler(businessRepo)

	// Feature: Document
	documentRepo := document.NewPostgresRepo(db)
	documentService := document.NewService(documentRepo, docBlobs)
	documentHandler := document.NewHandler(documentService, documentRepo)

	// Feature: Product
	productRepo := product.NewPostgresRepo(db)
	productHandler := product.NewHandler(productRepo)

	// Feature: Embedding
	embeddingRepo := embedding.NewPostgresRepo(db)

	// Feature: Task
	taskRepo := task.NewPostgresRepo(db)
	validator := &sourceValidator{
		businesses: businessRepo,
		documents:  documentRepo,
		products:   productRepo,
	}
	taskService := task.NewService(taskRepo, validator, taskPub, config.TopicIngest)
	taskHandler := task.NewHandler(taskService)

	// Feature: Stats
	statsHandler := stats.NewHandler(businessRepo, documentRepo, productRepo, embeddingRepo, taskRepo)

	// Embedding backends. Models prefixed "gemini-" go to the Gemini SDK
	// when an API key is configured; everything else goes to the HTTP
	// embedding service.
	httpEmbedder := embedder.NewClient(cfg.EmbedderURL, time.Duration(cfg.EmbedTimeoutSeconds)*time.Second)
	selector := &embedderSelector{fallback: httpEmbedder}
	if cfg.GeminiAPIKey != "" {
		g, err := gemini.NewEmbedder(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("gemini embedder error: %w", err)
		}
		selector.gemini = g
	}

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/businesses", middleware.CorrelationID(enableCORS(businessHandler.Create)))
	mux.Handle("GET /api/v1/businesses", middleware.CorrelationID(enableCORS(businessHandler.List)))

	mux.Handle("POST /api/v1/businesses/{id}/documents", middleware.CorrelationID(enableCORS(documentHandler.Upload)))
	mux.Handle("GET /api/v1/businesses/{id}/documents", middleware.CorrelationID(enableCORS(documentHandler.List)))
	mux.Handle("DELETE /api/v1/businesses/{id}/documents/{docID}", middleware.CorrelationID(enableCORS(documentHandler.Delete)))

	mux.Handle("POST /api/v1/businesses/{id}/products", middleware.CorrelationID(enableCORS(productHandler.Create)))
	mux.Handle("GET /api/v1/businesses/{id}/products", middleware.CorrelationID(enableCORS(productHandler.List)))

	mux.Handle("GET /api/v1/businesses/{id}/settings/chunking", middleware.CorrelationID(enableCORS(settingsHandler.GetChunking)))
	mux.Handle("PUT /api/v1/businesses/{id}/settings/chunking", middleware.CorrelationID(enableCORS(settingsHandler.UpdateChunking)))
	mux.Handle("GET /api/v1/businesses/{id}/settings/bot", middleware.CorrelationID(enableCORS(settingsHandler.GetBot)))
	mux.Handle("PUT /api/v1/businesses/{id}/settings/bot", middleware.CorrelationID(enableCORS(settingsHandler.UpdateBot)))

	mux.Handle("POST /api/v1/ingestions", middleware.CorrelationID(enableCORS(taskHandler.Create)))
	mux.Handle("GET /api/v1/ingestions/{id}/status", middleware.CorrelationID(enableCORS(taskHandler.GetStatus)))

	mux.Handle("GET /api/v1/stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Worker (Ingest Consumer) Setup
	pipeline := worker.NewPipeline(
		&businessFinder{repo: businessRepo},
		&documentFetcher{repo: documentRepo},
		&productFetcher{repo: productRepo},
		&configResolver{settings: settingsService},
		blobStore,
		extractor{},
		selector,
		&embeddingWriter{repo: embeddingRepo},
		&progressRecorder{repo: taskRepo},
	)
	consumer := worker.NewIngestConsumer(pipeline, &progressRecorder{repo: taskRepo}, cfg.MaxRetries)

	return &App{
		Handler:        mux,
		IngestConsumer: consumer,
		cfg:            cfg,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.cfg.ServerPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Adapter: business existence check for the pipeline and task validation.
type businessFinder struct {
	repo business.Repository
}

func (a *businessFinder) Exists(ctx context.Context, id string) (bool, error) {
	return a.repo.Exists(ctx, id)
}

// Adapter: document lookup for the pipeline.
type documentFetcher struct {
	repo document.Repository
}

func (a *documentFetcher) GetDocument(ctx context.Context, businessID, id string) (*worker.DocumentInfo, error) {
	d, err := a.repo.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	return &worker.DocumentInfo{Name: d.Name, Type: d.Type, BlobRef: d.BlobRef}, nil
}

// Adapter: product lookup plus text synthesis for the pipeline.
type productFetcher struct {
	repo product.Repository
}

func (a *productFetcher) GetProduct(ctx context.Context, businessID, id string) (*worker.ProductInfo, error) {
	p, err := a.repo.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	return &worker.ProductInfo{Name: p.Name, Category: p.Category, Text: p.Text()}, nil
}

// Adapter: settings resolution for the pipeline.
type configResolver struct {
	settings *settings.Service
}

func (a *configResolver) ChunkingFor(ctx context.Context, businessID, entityType string) (worker.ChunkingConfig, error) {
	cs, err := a.settings.Chunking(ctx, businessID, entityType)
	if err != nil {
		return worker.ChunkingConfig{}, err
	}
	return worker.ChunkingConfig{ChunkSize: cs.ChunkSize, ChunkOverlap: cs.ChunkOverlap}, nil
}

func (a *configResolver) BotFor(ctx context.Context, businessID string) (worker.BotConfig, error) {
	bs, err := a.settings.Bot(ctx, businessID)
	if err != nil {
		return worker.BotConfig{}, err
	}
	return worker.BotConfig{EmbeddingModel: bs.EmbeddingModel, EmbeddingDim: bs.EmbeddingDim}, nil
}

// Adapter: persistence of pipeline output into the embeddings table.
type embeddingWriter struct {
	repo embedding.Repository
}

func (a *embeddingWriter) ReplaceEmbeddings(ctx context.Context, businessID, sourceType, sourceID string, batch []worker.EmbeddingRecord) ([]string, error) {
	key := embedding.SourceKey{BusinessID: businessID, SourceType: sourceType, SourceID: sourceID}
	rows := make([]embedding.Embedding, len(batch))
	for i, rec := range batch {
		rows[i] = embedding.NewRow(rec.ChunkIndex, rec.Content, rec.Vector, rec.Metadata)
	}
	return a.repo.ReplaceBatch(ctx, key, rows)
}

// Adapter: task state transitions for the pipeline and consumer.
type progressRecorder struct {
	repo task.Repository
}

func (a *progressRecorder) Progress(ctx context.Context, taskID, stage string, retry int, details map[string]interface{}) error {
	return a.repo.UpdateProgress(ctx, taskID, stage, retry, details)
}

func (a *progressRecorder) Complete(ctx context.Context, taskID string, result map[string]interface{}) error {
	return a.repo.Complete(ctx, taskID, result)
}

func (a *progressRecorder) Fail(ctx context.Context, taskID string, result map[string]interface{}) error {
	return a.repo.Fail(ctx, taskID, result)
}

// Adapter: source existence checks for task submission.
type sourceValidator struct {
	businesses business.Repository
	documents  document.Repository
	products   product.Repository
}

func (a *sourceValidator) BusinessExists(ctx context.Context, businessID string) (bool, error) {
	return a.businesses.Exists(ctx, businessID)
}

func (a *sourceValidator) SourceExists(ctx context.Context, businessID, sourceType, sourceID string) (bool, error) {
	var err error
	switch sourceType {
	case worker.SourceTypeDocument:
		_, err = a.documents.Get(ctx, businessID, sourceID)
	case worker.SourceTypeProduct:
		_, err = a.products.Get(ctx, businessID, sourceID)
	default:
		return false, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Adapter: package-level extraction behind the pipeline's interface.
type extractor struct{}

func (extractor) Text(data []byte, fileType string) (string, error) {
	return extract.Text(data, fileType)
}

// embedderSelector routes models to the right backend.
type embedderSelector struct {
	gemini   worker.Embedder
	fallback worker.Embedder
}

func (s *embedderSelector) Select(model string) worker.Embedder {
	if s.gemini != nil && strings.HasPrefix(model, "gemini-") {
		return s.gemini
	}
	return s.fallback
}
