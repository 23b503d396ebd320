package memory

import (
	"context"
	"fmt"

	"github.com/josephgoksu/geotask/internal/geo"
)

const itemColumns = `id, task_id, details, done`

func scanItem(row rowScanner) (geo.Item, error) {
	var it geo.Item
	var done int
	if err := row.Scan(&it.ID, &it.TaskID, &it.Details, &done); err != nil {
		return geo.Item{}, err
	}
	it.Done = done != 0
	return it, nil
}

// ListItems returns the items of one task in id order.
func (s *SQLiteStore) ListItems(ctx context.Context, taskID geo.TaskID) ([]geo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE task_id = ? ORDER BY id`, taskID)
}

// ListAllItems returns every item. Used to hydrate the cache at startup.
func (s *SQLiteStore) ListAllItems(ctx context.Context) ([]geo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items ORDER BY task_id, id`)
}

func (s *SQLiteStore) queryItems(ctx context.Context, query string, args ...any) ([]geo.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []geo.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// InsertItem creates an item under its task and returns the new id.
func (s *SQLiteStore) InsertItem(ctx context.Context, it geo.Item) (geo.ItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertItem(ctx, s.db, it)
}

func insertItem(ctx context.Context, q execer, it geo.Item) (geo.ItemID, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO items (task_id, details, done) VALUES (?, ?, ?)`, it.TaskID, it.Details, it.DoneInt())
	if err != nil {
		return 0, fmt.Errorf("insert item for task %d: %w", it.TaskID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return geo.ItemID(id), nil
}

// UpdateItem writes details and done for an existing item.
func (s *SQLiteStore) UpdateItem(ctx context.Context, it geo.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateItem(ctx, s.db, it)
}

func updateItem(ctx context.Context, q execer, it geo.Item) error {
	res, err := q.ExecContext(ctx, `UPDATE items SET details = ?, done = ? WHERE id = ?`, it.Details, it.DoneInt(), it.ID)
	if err != nil {
		return fmt.Errorf("update item %d: %w", it.ID, err)
	}
	return requireAffected(res, fmt.Sprintf("update item %d", it.ID))
}

// DeleteItem removes an item row.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id geo.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteItem(ctx, s.db, id)
}

func deleteItem(ctx context.Context, q execer, id geo.ItemID) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	return nil
}
