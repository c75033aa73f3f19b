package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pastekit/pastekit/internal/common/errors"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "media.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testMedia(id string, createdAt time.Time) *Media {
	return &Media{
		ID:        id,
		Name:      id + ".png",
		MIME:      "image/png",
		Size:      1024,
		Width:     64,
		Height:    48,
		Usage:     "chat",
		Path:      "/tmp/" + id + ".png",
		CreatedAt: createdAt,
	}
}

func TestSQLiteRepository_SaveAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	m := testMedia("media-1", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, m))

	got, err := repo.Get(ctx, "media-1")
	require.NoError(t, err)
	assert.Equal(t, m.Name, got.Name)
	assert.Equal(t, m.MIME, got.MIME)
	assert.Equal(t, m.Width, got.Width)
	assert.Equal(t, m.Height, got.Height)
	assert.Equal(t, m.Usage, got.Usage)
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSQLiteRepository_ListNewestFirst(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, testMedia("old", base.Add(-2*time.Hour))))
	require.NoError(t, repo.Save(ctx, testMedia("mid", base.Add(-1*time.Hour))))
	require.NoError(t, repo.Save(ctx, testMedia("new", base)))

	items, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "new", items[0].ID)
	assert.Equal(t, "mid", items[1].ID)
}

func TestSQLiteRepository_DuplicateIDFails(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	m := testMedia("dup", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, m))
	assert.Error(t, repo.Save(ctx, m))
}
