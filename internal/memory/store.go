package memory

import (
	"context"
	"time"

	"github.com/josephgoksu/geotask/internal/geo"
)

// Writer is the write path used by the flush coordinator. Both SQLiteStore
// and the transaction handed to InTx implement it.
type Writer interface {
	// UpdateTask writes name, updated_at and geometry for an existing row.
	UpdateTask(ctx context.Context, t geo.Task) error

	// InsertItem creates an item row and returns the id assigned by the store.
	// The item's own id is ignored.
	InsertItem(ctx context.Context, it geo.Item) (geo.ItemID, error)

	// UpdateItem writes details and done for an existing row.
	UpdateItem(ctx context.Context, it geo.Item) error

	// DeleteItem removes an item row. Deleting a missing row is not an error.
	DeleteItem(ctx context.Context, id geo.ItemID) error
}

// TaskNameLookup is the read-only path used by the background region event
// correlator. It never goes through the in-memory cache.
type TaskNameLookup interface {
	TaskName(ctx context.Context, id geo.TaskID) (string, error)
}

// Store is the full durable store contract.
type Store interface {
	Writer
	TaskNameLookup

	CreateTask(ctx context.Context, name string, updatedAt time.Time) (geo.Task, error)
	GetTask(ctx context.Context, id geo.TaskID) (geo.Task, error)
	ListTasks(ctx context.Context) ([]geo.Task, error)
	DeleteTask(ctx context.Context, id geo.TaskID) error
	ListItems(ctx context.Context, taskID geo.TaskID) ([]geo.Item, error)
	ListAllItems(ctx context.Context) ([]geo.Item, error)
	InTx(ctx context.Context, fn func(Writer) error) error
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
