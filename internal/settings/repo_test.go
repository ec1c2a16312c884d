package settings_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"bizassist/internal/settings"
)

func TestPostgresRepo_GetChunking(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := settings.NewPostgresRepo(db)

	t.Run("Exact match", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"business_id", "entity_type", "chunk_size", "chunk_overlap"}).
			AddRow("biz-1", "document", 200, 40)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT business_id, entity_type, chunk_size, chunk_overlap FROM chunking_settings WHERE business_id = $1 AND entity_type = $2")).
			WithArgs("biz-1", "document").
			WillReturnRows(rows)

		cs, err := repo.GetChunking(context.Background(), "biz-1", "document")
		assert.NoError(t, err)
		assert.Equal(t, 200, cs.ChunkSize)
		assert.Equal(t, 40, cs.ChunkOverlap)
		assert.False(t, cs.IsDefault)
	})

	t.Run("Miss surfaces ErrNoRows", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT business_id, entity_type, chunk_size, chunk_overlap FROM chunking_settings")).
			WithArgs("biz-1", "product").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetChunking(context.Background(), "biz-1", "product")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestPostgresRepo_UpsertChunking(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := settings.NewPostgresRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chunking_settings (business_id, entity_type, chunk_size, chunk_overlap)")).
		WithArgs("biz-1", "document", 150, 30).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpsertChunking(context.Background(), &settings.ChunkingSettings{
		BusinessID: "biz-1", EntityType: "document", ChunkSize: 150, ChunkOverlap: 30,
	})
	assert.NoError(t, err)
}

func TestPostgresRepo_GetBot(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := settings.NewPostgresRepo(db)

	rows := sqlmock.NewRows([]string{"business_id", "embedding_model_name", "embedding_dim"}).
		AddRow("biz-1", "gemini-embedding-001", 768)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT business_id, embedding_model_name, embedding_dim FROM bot_settings WHERE business_id = $1")).
		WithArgs("biz-1").
		WillReturnRows(rows)

	bs, err := repo.GetBot(context.Background(), "biz-1")
	assert.NoError(t, err)
	assert.Equal(t, "gemini-embedding-001", bs.EmbeddingModel)
	assert.Equal(t, 768, bs.EmbeddingDim)
}
