package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pastekit/pastekit/internal/common/errors"
)

// SQLiteRepository stores media metadata in a local sqlite database.
type SQLiteRepository struct {
	db *sqlx.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the metadata database.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	normalizedPath := normalizeSQLitePath(dbPath)
	if err := ensureSQLiteDir(normalizedPath); err != nil {
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_mode=rwc", normalizedPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to close database after schema error: %w", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func ensureSQLiteDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func normalizeSQLitePath(dbPath string) string {
	if dbPath == "" {
		return dbPath
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return dbPath
	}
	return abs
}

func (r *SQLiteRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS media (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mime TEXT NOT NULL,
		size INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		usage TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_media_created_at ON media(created_at);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Save inserts a media row.
func (r *SQLiteRepository) Save(ctx context.Context, m *Media) error {
	query := `
	INSERT INTO media (id, name, mime, size, width, height, usage, path, created_at)
	VALUES (:id, :name, :mime, :size, :width, :height, :usage, :path, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to save media: %w", err)
	}
	return nil
}

// Get returns the media row with the given id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Media, error) {
	var m Media
	err := r.db.GetContext(ctx, &m, `SELECT * FROM media WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("media", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load media: %w", err)
	}
	return &m, nil
}

// List returns the most recent media rows, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*Media, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*Media
	err := r.db.SelectContext(ctx, &out, `SELECT * FROM media ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	return out, nil
}
