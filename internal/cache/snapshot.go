// Package cache keeps the in-memory working copy of tasks, items and
// registered regions. Reads never touch the durable store.
//
// State is held as an immutable Snapshot. Every change is expressed as a
// Command and applied by the pure Reduce function; the Cache only swaps the
// current snapshot under a lock.
package cache

import (
	"sort"

	"github.com/josephgoksu/geotask/internal/geo"
)

// Snapshot is one immutable version of the cache contents.
// Callers must treat the slices as read-only; accessors hand out copies.
type Snapshot struct {
	tasks   []geo.Task   // UpdatedAt descending
	items   []geo.Item   // insertion order
	regions []geo.Region // Identifier ascending
}

// Tasks returns all tasks, most recently updated first.
func (s Snapshot) Tasks() []geo.Task {
	out := make([]geo.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Task returns the task with the given id.
func (s Snapshot) Task(id geo.TaskID) (geo.Task, bool) {
	if i := s.taskIndex(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return geo.Task{}, false
}

// Items returns the items owned by a task in insertion order.
func (s Snapshot) Items(taskID geo.TaskID) []geo.Item {
	var out []geo.Item
	for _, it := range s.items {
		if it.TaskID == taskID {
			out = append(out, it)
		}
	}
	return out
}

// AllItems returns every item.
func (s Snapshot) AllItems() []geo.Item {
	return append([]geo.Item(nil), s.items...)
}

// Item returns the item with the given id.
func (s Snapshot) Item(id geo.ItemID) (geo.Item, bool) {
	if i := s.itemIndex(id); i >= 0 {
		return s.items[i], true
	}
	return geo.Item{}, false
}

// Regions returns the registered region set ordered by identifier.
func (s Snapshot) Regions() []geo.Region {
	return append([]geo.Region(nil), s.regions...)
}

func (s Snapshot) taskIndex(id geo.TaskID) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s Snapshot) itemIndex(id geo.ItemID) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// sortTasks orders by UpdatedAt descending; ties fall back to id descending
// so the order is total.
func sortTasks(tasks []geo.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID > b.ID
	})
}

// SortRegions orders regions by identifier.
func SortRegions(regions []geo.Region) {
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Identifier < regions[j].Identifier
	})
}
