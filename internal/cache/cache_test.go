package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock returns the same instant on every call, forcing the reducer to
// break ties itself.
func fixedClock() func() time.Time {
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestUpsertTask_StampsAndSorts(t *testing.T) {
	c := New(WithClock(fixedClock()))

	c.UpsertTask(geo.Task{ID: 1, Name: "first"})
	c.UpsertTask(geo.Task{ID: 2, Name: "second"})

	tasks := c.ListTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, geo.TaskID(2), tasks[0].ID, "most recently updated first")
	assert.True(t, tasks[0].UpdatedAt.After(tasks[1].UpdatedAt), "stamps stay strictly ordered with a frozen clock")

	c.Dispatch(RenameTask{ID: 1, Name: "first, renamed"})
	tasks = c.ListTasks()
	assert.Equal(t, geo.TaskID(1), tasks[0].ID)
	assert.Equal(t, "first, renamed", tasks[0].Name)
}

func TestListTasks_AlwaysSortedDescending(t *testing.T) {
	c := New()
	for i := 1; i <= 5; i++ {
		c.UpsertTask(geo.Task{ID: geo.TaskID(i)})
	}
	c.Dispatch(RenameTask{ID: 3, Name: "bump"})
	c.Dispatch(SetGeometry{ID: 1, Latitude: geo.Float(1), Longitude: geo.Float(1), Radius: geo.Float(1)})

	tasks := c.ListTasks()
	for i := 1; i < len(tasks); i++ {
		assert.False(t, tasks[i].UpdatedAt.After(tasks[i-1].UpdatedAt), "index %d out of order", i)
	}
	assert.Equal(t, geo.TaskID(1), tasks[0].ID)
	assert.Equal(t, geo.TaskID(3), tasks[1].ID)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	s0 := Reduce(Snapshot{}, PutTask{Task: geo.Task{ID: 1, Name: "a"}}, now)
	s1 := Reduce(s0, RenameTask{ID: 1, Name: "b"}, now.Add(time.Second))

	t0, _ := s0.Task(1)
	t1, _ := s1.Task(1)
	assert.Equal(t, "a", t0.Name)
	assert.Equal(t, "b", t1.Name)
}

func TestReduce_UnknownIDsAreNoOps(t *testing.T) {
	s := Reduce(Snapshot{}, PutTask{Task: geo.Task{ID: 1}}, time.Now())

	for _, cmd := range []Command{
		RenameTask{ID: 9, Name: "x"},
		SetGeometry{ID: 9},
		RemoveTask{ID: 9},
		SetItemDetails{ID: -9, Details: "x"},
		ToggleItem{ID: -9},
		RemoveItem{ID: -9},
	} {
		got := Reduce(s, cmd, time.Now())
		assert.Equal(t, s.Tasks(), got.Tasks(), "%T", cmd)
		assert.Empty(t, got.AllItems(), "%T", cmd)
	}
}

func TestRemoveTask_DropsOwnedItems(t *testing.T) {
	c := New()
	c.UpsertTask(geo.Task{ID: 1})
	c.UpsertTask(geo.Task{ID: 2})
	c.UpsertItem(geo.Item{ID: -1, TaskID: 1, Details: "a"})
	c.UpsertItem(geo.Item{ID: 5, TaskID: 1, Details: "b"})
	c.UpsertItem(geo.Item{ID: -2, TaskID: 2, Details: "c"})

	c.RemoveTask(1)

	_, ok := c.GetTask(1)
	assert.False(t, ok)
	assert.Empty(t, c.ListItems(1))
	assert.Len(t, c.ListItems(2), 1)
}

func TestItemCommands(t *testing.T) {
	c := New()
	c.UpsertTask(geo.Task{ID: 1})
	c.UpsertItem(geo.Item{ID: -1, TaskID: 1})
	c.UpsertItem(geo.Item{ID: -2, TaskID: 1})

	c.Dispatch(SetItemDetails{ID: -1, Details: "milk"})
	c.Dispatch(ToggleItem{ID: -1})

	it, ok := c.GetItem(-1)
	require.True(t, ok)
	assert.Equal(t, "milk", it.Details)
	assert.True(t, it.Done)

	c.Dispatch(ToggleItem{ID: -1})
	it, _ = c.GetItem(-1)
	assert.False(t, it.Done)

	items := c.ListItems(1)
	require.Len(t, items, 2)
	assert.Equal(t, geo.ItemID(-1), items[0].ID, "edits keep insertion order")

	c.RemoveItem(-2)
	assert.Len(t, c.ListItems(1), 1)
}

func TestItemCommands_DoNotTouchTaskRecency(t *testing.T) {
	c := New()
	c.UpsertTask(geo.Task{ID: 1})
	c.UpsertTask(geo.Task{ID: 2})
	c.UpsertItem(geo.Item{ID: -1, TaskID: 1})
	c.Dispatch(ToggleItem{ID: -1})

	assert.Equal(t, geo.TaskID(2), c.ListTasks()[0].ID)
}

func TestReassignItemIDs(t *testing.T) {
	c := New()
	c.UpsertTask(geo.Task{ID: 1})
	c.UpsertItem(geo.Item{ID: -1, TaskID: 1, Details: "a"})
	c.UpsertItem(geo.Item{ID: 3, TaskID: 1, Details: "b"})

	c.Dispatch(ReassignItemIDs{IDs: map[geo.ItemID]geo.ItemID{-1: 10}})

	_, ok := c.GetItem(-1)
	assert.False(t, ok)
	it, ok := c.GetItem(10)
	require.True(t, ok)
	assert.Equal(t, "a", it.Details)
	_, ok = c.GetItem(3)
	assert.True(t, ok)
}

func TestSetRegions_SortsAndSurvivesLoad(t *testing.T) {
	c := New()
	c.SetRegions([]geo.Region{{Identifier: "2"}, {Identifier: "1"}})

	regions := c.ListRegions()
	require.Len(t, regions, 2)
	assert.Equal(t, "1", regions[0].Identifier)

	c.Dispatch(LoadAll{Tasks: []geo.Task{{ID: 1}}})
	assert.Len(t, c.ListRegions(), 2)
}

func TestLoadAll_KeepsStoredTimestamps(t *testing.T) {
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := old.Add(time.Hour)

	c := New()
	c.Dispatch(LoadAll{Tasks: []geo.Task{{ID: 1, UpdatedAt: old}, {ID: 2, UpdatedAt: newer}}})

	tasks := c.ListTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, geo.TaskID(2), tasks[0].ID)
	assert.True(t, tasks[1].UpdatedAt.Equal(old))
}

func TestSnapshotAccessors_ReturnCopies(t *testing.T) {
	c := New()
	c.UpsertTask(geo.Task{ID: 1, Latitude: geo.Float(1)})

	tasks := c.ListTasks()
	*tasks[0].Latitude = 50

	got, _ := c.GetTask(1)
	assert.Equal(t, 1.0, *got.Latitude)
}

func TestTempIDs_StrictlyNegativeAndDistinct(t *testing.T) {
	var ids TempIDs
	seen := make(map[geo.ItemID]bool)
	prev := geo.ItemID(0)
	for i := 0; i < 100; i++ {
		id := ids.Next()
		assert.Negative(t, int64(id))
		assert.Less(t, int64(id), int64(prev), "strictly decreasing")
		assert.False(t, seen[id], "duplicate %d", id)
		seen[id] = true
		prev = id
	}
}

func TestTempIDs_ConcurrentUse(t *testing.T) {
	var ids TempIDs
	var mu sync.Mutex
	seen := make(map[geo.ItemID]bool)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := ids.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 400)
}
