// Package sqlite provides the sqlite-backed record store. It registers
// itself with the storage factory; import it for its side effect.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"webwatch/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func init() {
	storage.RegisterFactory("sqlite", New)
}

type SQLiteStore struct {
	db *sql.DB
}

func New(path string) (storage.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite storage: path is required")
	}

	slog.Debug("opening sqlite store", "path", path)

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: open: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite storage: ping: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("sqlite storage: set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("sqlite storage: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context, source string, kind storage.Kind) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE source = ? AND kind = ?`,
		source, string(kind),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: read %s/%s: %w", source, kind, err)
	}
	return data, nil
}

func (s *SQLiteStore) Write(ctx context.Context, source string, kind storage.Kind, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (source, kind, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source, kind) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, source, string(kind), data)
	if err != nil {
		return fmt.Errorf("sqlite storage: write %s/%s: %w", source, kind, err)
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, source string, kind storage.Kind) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE source = ? AND kind = ?`,
		source, string(kind),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite storage: exists %s/%s: %w", source, kind, err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
