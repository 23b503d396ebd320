package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/josephgoksu/geotask/internal/geo"
	_ "modernc.org/sqlite"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "geotask.db"

// ErrNotFound is returned when a task or item row does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore is the durable store for tasks and items.
//
// The connection is a single shared handle used by both the foreground flush
// path and the background region-event path, so every call is serialized on mu
// and the pool is pinned to one connection.
type SQLiteStore struct {
	mu       sync.Mutex
	db       *sql.DB
	basePath string
}

// NewSQLiteStore opens (or creates) the store under basePath.
// Pass ":memory:" for a throwaway in-process database.
func NewSQLiteStore(basePath string) (*SQLiteStore, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		// Pragmas in the DSN are re-applied if the pool ever reopens the connection.
		dbPath = filepath.Join(basePath, DBFileName) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &SQLiteStore{
		db:       db,
		basePath: basePath,
	}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		updated_at TEXT,
		latitude REAL,
		longitude REAL,
		radius REAL
	);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id INTEGER NOT NULL,
		details TEXT NOT NULL,
		done INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_items_task ON items(task_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_updated ON tasks(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// BasePath returns the directory the database lives in.
func (s *SQLiteStore) BasePath() string {
	return s.basePath
}

// InTx runs fn inside a single transaction. The store stays locked for the
// whole callback, so fn must only use the Writer it is given.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(txWriter{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// txWriter exposes the write path of a running transaction.
type txWriter struct {
	tx *sql.Tx
}

func (w txWriter) UpdateTask(ctx context.Context, t geo.Task) error {
	return updateTask(ctx, w.tx, t)
}

func (w txWriter) InsertItem(ctx context.Context, it geo.Item) (geo.ItemID, error) {
	return insertItem(ctx, w.tx, it)
}

func (w txWriter) UpdateItem(ctx context.Context, it geo.Item) error {
	return updateItem(ctx, w.tx, it)
}

func (w txWriter) DeleteItem(ctx context.Context, id geo.ItemID) error {
	return deleteItem(ctx, w.tx, id)
}
