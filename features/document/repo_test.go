package document

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepo_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO documents (business_id, name, type, blob_ref, content_hash, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`)).
		WithArgs("biz-1", "menu.pdf", "pdf", "s3://b/k", "abc", []byte("null")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("doc-1", now))

	doc := &Document{BusinessID: "biz-1", Name: "menu.pdf", Type: "pdf", BlobRef: "s3://b/k", ContentHash: "abc"}
	require.NoError(t, repo.Save(context.Background(), doc))
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, now, doc.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_ExistsByHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM documents WHERE business_id = $1 AND content_hash = $2)`)).
		WithArgs("biz-1", "abc").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByHash(context.Background(), "biz-1", "abc")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepo(db)

	t.Run("deletes existing row", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM documents WHERE business_id = $1 AND id = $2`)).
			WithArgs("biz-1", "doc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), "biz-1", "doc-1"))
	})

	t.Run("reports missing row", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM documents WHERE business_id = $1 AND id = $2`)).
			WithArgs("biz-1", "nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), "biz-1", "nope"), ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, business_id, name, type, blob_ref, content_hash, metadata, created_at
		FROM documents
		WHERE business_id = $1 AND id = $2`)).
		WithArgs("biz-1", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "type", "blob_ref", "content_hash", "metadata", "created_at"}).
			AddRow("doc-1", "biz-1", "menu.pdf", "pdf", "s3://b/k", "abc", []byte(`{"pages":"3"}`), now))

	doc, err := repo.Get(context.Background(), "biz-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "menu.pdf", doc.Name)
	assert.Equal(t, map[string]string{"pages": "3"}, doc.Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}
