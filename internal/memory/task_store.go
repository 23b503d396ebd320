package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/josephgoksu/geotask/internal/geo"
)

const taskColumns = `id, name, updated_at, latitude, longitude, radius`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (geo.Task, error) {
	var t geo.Task
	var updatedAt sql.NullString
	var lat, lon, radius sql.NullFloat64
	if err := row.Scan(&t.ID, &t.Name, &updatedAt, &lat, &lon, &radius); err != nil {
		return geo.Task{}, err
	}
	t.UpdatedAt = parseTime(updatedAt)
	t.Latitude = floatPtr(lat)
	t.Longitude = floatPtr(lon)
	t.Radius = floatPtr(radius)
	return t, nil
}

// CreateTask inserts a task row and reads it back, so the caller gets the
// id assigned by the database.
func (s *SQLiteStore) CreateTask(ctx context.Context, name string, updatedAt time.Time) (geo.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks (name, updated_at) VALUES (?, ?)`, name, formatTime(updatedAt))
	if err != nil {
		return geo.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return geo.Task{}, fmt.Errorf("last insert id: %w", err)
	}

	t, err := getTask(ctx, s.db, geo.TaskID(id))
	if err != nil {
		return geo.Task{}, fmt.Errorf("read back task %d: %w", id, err)
	}
	return t, nil
}

// GetTask returns a task by id or ErrNotFound.
func (s *SQLiteStore) GetTask(ctx context.Context, id geo.TaskID) (geo.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getTask(ctx, s.db, id)
}

func getTask(ctx context.Context, q execer, id geo.TaskID) (geo.Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return geo.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return geo.Task{}, fmt.Errorf("query task: %w", err)
	}
	return t, nil
}

// TaskName resolves a task id to its name with a single-column read.
func (s *SQLiteStore) TaskName(ctx context.Context, id geo.TaskID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM tasks WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query task name: %w", err)
	}
	return name, nil
}

// ListTasks returns every task, most recently updated first.
func (s *SQLiteStore) ListTasks(ctx context.Context) ([]geo.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []geo.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask writes the mutable fields of an existing task.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t geo.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateTask(ctx, s.db, t)
}

func updateTask(ctx context.Context, q execer, t geo.Task) error {
	res, err := q.ExecContext(ctx, `
		UPDATE tasks SET name = ?, updated_at = ?, latitude = ?, longitude = ?, radius = ?
		WHERE id = ?
	`, t.Name, formatTime(t.UpdatedAt), nullFloat(t.Latitude), nullFloat(t.Longitude), nullFloat(t.Radius), t.ID)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return requireAffected(res, fmt.Sprintf("update task %d", t.ID))
}

// DeleteTask removes a task; its items go with it through the foreign key.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id geo.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("delete task %d", id))
}
