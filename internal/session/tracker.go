// Package session tracks what an editing session touched and writes it to
// the durable store when the session ends.
package session

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/josephgoksu/geotask/internal/geo"
)

// Tracker is the dirty-set of one editing session. It is created empty when
// the task editor gains focus and consumed by the Flusher when it loses focus.
// A Tracker is not safe for concurrent use; the engine guards it.
type Tracker struct {
	id        string
	taskID    geo.TaskID
	startedAt time.Time

	tasks   map[geo.TaskID]struct{}
	items   map[geo.ItemID]struct{}
	removed map[geo.ItemID]struct{}
}

// NewTracker opens a session for one task.
func NewTracker(taskID geo.TaskID) *Tracker {
	return &Tracker{
		id:        uuid.New().String(),
		taskID:    taskID,
		startedAt: time.Now(),
		tasks:     make(map[geo.TaskID]struct{}),
		items:     make(map[geo.ItemID]struct{}),
		removed:   make(map[geo.ItemID]struct{}),
	}
}

// ID identifies the session in logs and telemetry.
func (t *Tracker) ID() string { return t.id }

// TaskID is the task the session edits.
func (t *Tracker) TaskID() geo.TaskID { return t.taskID }

// StartedAt is when the session opened.
func (t *Tracker) StartedAt() time.Time { return t.startedAt }

// TouchTask marks a task as mutated. Re-adding is a no-op.
func (t *Tracker) TouchTask(id geo.TaskID) {
	t.tasks[id] = struct{}{}
}

// TouchItem marks an item as mutated. Re-adding is a no-op.
func (t *Tracker) TouchItem(id geo.ItemID) {
	t.items[id] = struct{}{}
}

// RemoveItem records an item deletion. A temporary item was never written,
// so it is simply forgotten; a persisted one is deleted at flush time.
func (t *Tracker) RemoveItem(id geo.ItemID) {
	delete(t.items, id)
	if !id.IsTemporary() {
		t.removed[id] = struct{}{}
	}
}

// Empty reports whether nothing was touched.
func (t *Tracker) Empty() bool {
	return len(t.tasks) == 0 && len(t.items) == 0 && len(t.removed) == 0
}

// Dirty returns a sorted copy of the tracked ids.
func (t *Tracker) Dirty() Dirty {
	d := Dirty{}
	for id := range t.tasks {
		d.Tasks = append(d.Tasks, id)
	}
	for id := range t.items {
		d.Items = append(d.Items, id)
	}
	for id := range t.removed {
		d.Removed = append(d.Removed, id)
	}
	sort.Slice(d.Tasks, func(i, j int) bool { return d.Tasks[i] < d.Tasks[j] })
	sortItemIDs(d.Items)
	sortItemIDs(d.Removed)
	return d
}

// Merge folds a previous dirty-set back in, used to retry entities a failed
// flush left behind.
func (t *Tracker) Merge(d Dirty) {
	for _, id := range d.Tasks {
		t.TouchTask(id)
	}
	for _, id := range d.Items {
		t.TouchItem(id)
	}
	for _, id := range d.Removed {
		t.RemoveItem(id)
	}
}

// Dirty is a point-in-time copy of a tracker's ids.
type Dirty struct {
	Tasks   []geo.TaskID
	Items   []geo.ItemID
	Removed []geo.ItemID
}

// Empty reports whether d holds no ids.
func (d Dirty) Empty() bool {
	return len(d.Tasks) == 0 && len(d.Items) == 0 && len(d.Removed) == 0
}

// sortItemIDs puts temporary ids first in creation order (-1, -2, ...) and
// persisted ids after them in ascending order.
func sortItemIDs(ids []geo.ItemID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.IsTemporary() != b.IsTemporary() {
			return a.IsTemporary()
		}
		if a.IsTemporary() {
			return a > b
		}
		return a < b
	})
}
