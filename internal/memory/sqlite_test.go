package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateTask_ReadsBackAssignedID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	task, err := store.CreateTask(ctx, "Untitled", now)
	require.NoError(t, err)

	assert.Positive(t, int64(task.ID))
	assert.Equal(t, "Untitled", task.Name)
	assert.True(t, task.UpdatedAt.Equal(now), "sub-second precision must survive the round trip")
	assert.False(t, task.HasGeometry())
}

func TestUpdateTask_WritesGeometry(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, "Untitled", time.Now())
	require.NoError(t, err)

	task.Name = "Groceries"
	task.Latitude = geo.Float(1.0)
	task.Longitude = geo.Float(2.0)
	task.Radius = geo.Float(50)
	task.UpdatedAt = time.Now()
	require.NoError(t, store.UpdateTask(ctx, task))

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)
	require.True(t, got.HasGeometry())
	assert.Equal(t, 50.0, *got.Radius)

	got.Radius = nil
	require.NoError(t, store.UpdateTask(ctx, got))
	got, err = store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Radius)
	assert.NotNil(t, got.Latitude)
}

func TestUpdateTask_MissingRow(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateTask(context.Background(), geo.Task{ID: 999, Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTasks_MostRecentFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a, err := store.CreateTask(ctx, "a", base)
	require.NoError(t, err)
	b, err := store.CreateTask(ctx, "b", base.Add(time.Minute))
	require.NoError(t, err)

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, b.ID, tasks[0].ID)

	a.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, store.UpdateTask(ctx, a))

	tasks, err = store.ListTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, tasks[0].ID)
}

func TestItems_InsertUpdateDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, "Hardware store", time.Now())
	require.NoError(t, err)

	id, err := store.InsertItem(ctx, geo.Item{ID: -1, TaskID: task.ID, Details: "screws"})
	require.NoError(t, err)
	assert.Positive(t, int64(id), "temporary id is discarded, the store assigns a real one")

	require.NoError(t, store.UpdateItem(ctx, geo.Item{ID: id, TaskID: task.ID, Details: "wood screws", Done: true}))

	items, err := store.ListItems(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "wood screws", items[0].Details)
	assert.True(t, items[0].Done)

	require.NoError(t, store.DeleteItem(ctx, id))
	require.NoError(t, store.DeleteItem(ctx, id), "deleting a missing item is a no-op")

	items, err = store.ListItems(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteTask_CascadesItems(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, "Pharmacy", time.Now())
	require.NoError(t, err)
	other, err := store.CreateTask(ctx, "Bakery", time.Now())
	require.NoError(t, err)

	for _, d := range []string{"aspirin", "plasters"} {
		_, err := store.InsertItem(ctx, geo.Item{TaskID: task.ID, Details: d})
		require.NoError(t, err)
	}
	_, err = store.InsertItem(ctx, geo.Item{TaskID: other.ID, Details: "bread"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteTask(ctx, task.ID))

	items, err := store.ListItems(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	all, err := store.ListAllItems(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "bread", all[0].Details)

	assert.ErrorIs(t, store.DeleteTask(ctx, task.ID), ErrNotFound)
}

func TestInsertItem_RejectsDanglingTask(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.InsertItem(context.Background(), geo.Item{TaskID: 4242, Details: "orphan"})
	assert.Error(t, err, "foreign keys are enforced")
}

func TestTaskName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, "Gym", time.Now())
	require.NoError(t, err)

	name, err := store.TaskName(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gym", name)

	_, err = store.TaskName(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, "Post office", time.Now())
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.InTx(ctx, func(w Writer) error {
		task.Name = "renamed"
		if err := w.UpdateTask(ctx, task); err != nil {
			return err
		}
		if _, err := w.InsertItem(ctx, geo.Item{TaskID: task.ID, Details: "stamps"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Post office", got.Name)

	items, err := store.ListItems(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInTx_Commits(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, "Library", time.Now())
	require.NoError(t, err)

	var inserted geo.ItemID
	err = store.InTx(ctx, func(w Writer) error {
		var err error
		inserted, err = w.InsertItem(ctx, geo.Item{TaskID: task.ID, Details: "return books"})
		return err
	})
	require.NoError(t, err)

	items, err := store.ListItems(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, inserted, items[0].ID)
}
