package cache

import (
	"time"

	"github.com/josephgoksu/geotask/internal/geo"
)

// Command is a single change to the cache. Commands are plain values; the
// only place they take effect is Reduce.
type Command interface {
	command()
}

// LoadAll replaces tasks and items with what the durable store holds.
// Registered regions are left untouched.
type LoadAll struct {
	Tasks []geo.Task
	Items []geo.Item
}

// PutTask inserts or replaces a task.
type PutTask struct {
	Task geo.Task
}

// RenameTask sets a task's name.
type RenameTask struct {
	ID   geo.TaskID
	Name string
}

// SetGeometry replaces all three geometry fields at once. Nil clears a field.
type SetGeometry struct {
	ID        geo.TaskID
	Latitude  *float64
	Longitude *float64
	Radius    *float64
}

// RemoveTask drops a task and every item it owns.
type RemoveTask struct {
	ID geo.TaskID
}

// PutItem inserts or replaces an item.
type PutItem struct {
	Item geo.Item
}

// SetItemDetails sets an item's text.
type SetItemDetails struct {
	ID      geo.ItemID
	Details string
}

// ToggleItem flips an item's done flag.
type ToggleItem struct {
	ID geo.ItemID
}

// RemoveItem drops an item.
type RemoveItem struct {
	ID geo.ItemID
}

// ReassignItemIDs swaps temporary ids for the ids the store assigned.
type ReassignItemIDs struct {
	IDs map[geo.ItemID]geo.ItemID
}

// SetRegions records the region set the platform currently monitors.
type SetRegions struct {
	Regions []geo.Region
}

func (LoadAll) command()         {}
func (PutTask) command()         {}
func (RenameTask) command()      {}
func (SetGeometry) command()     {}
func (RemoveTask) command()      {}
func (PutItem) command()         {}
func (SetItemDetails) command()  {}
func (ToggleItem) command()      {}
func (RemoveItem) command()      {}
func (ReassignItemIDs) command() {}
func (SetRegions) command()      {}

// Reduce applies cmd to s and returns the resulting snapshot. s is never
// modified. Every command that changes a task stamps its UpdatedAt and
// re-sorts the task list; this is the only place that happens.
func Reduce(s Snapshot, cmd Command, now time.Time) Snapshot {
	switch c := cmd.(type) {
	case LoadAll:
		tasks := make([]geo.Task, len(c.Tasks))
		for i, t := range c.Tasks {
			tasks[i] = t.Clone()
		}
		sortTasks(tasks)
		return Snapshot{tasks: tasks, items: append([]geo.Item(nil), c.Items...), regions: s.regions}

	case PutTask:
		t := c.Task.Clone()
		return s.withTask(t, now)

	case RenameTask:
		t, ok := s.Task(c.ID)
		if !ok {
			return s
		}
		t.Name = c.Name
		return s.withTask(t, now)

	case SetGeometry:
		t, ok := s.Task(c.ID)
		if !ok {
			return s
		}
		t.Latitude, t.Longitude, t.Radius = c.Latitude, c.Longitude, c.Radius
		return s.withTask(t.Clone(), now)

	case RemoveTask:
		i := s.taskIndex(c.ID)
		if i < 0 {
			return s
		}
		tasks := make([]geo.Task, 0, len(s.tasks)-1)
		tasks = append(tasks, s.tasks[:i]...)
		tasks = append(tasks, s.tasks[i+1:]...)
		var items []geo.Item
		for _, it := range s.items {
			if it.TaskID != c.ID {
				items = append(items, it)
			}
		}
		return Snapshot{tasks: tasks, items: items, regions: s.regions}

	case PutItem:
		return s.withItem(c.Item)

	case SetItemDetails:
		it, ok := s.Item(c.ID)
		if !ok {
			return s
		}
		it.Details = c.Details
		return s.withItem(it)

	case ToggleItem:
		it, ok := s.Item(c.ID)
		if !ok {
			return s
		}
		it.Done = !it.Done
		return s.withItem(it)

	case RemoveItem:
		i := s.itemIndex(c.ID)
		if i < 0 {
			return s
		}
		items := make([]geo.Item, 0, len(s.items)-1)
		items = append(items, s.items[:i]...)
		items = append(items, s.items[i+1:]...)
		return Snapshot{tasks: s.tasks, items: items, regions: s.regions}

	case ReassignItemIDs:
		if len(c.IDs) == 0 {
			return s
		}
		items := make([]geo.Item, len(s.items))
		for i, it := range s.items {
			if real, ok := c.IDs[it.ID]; ok {
				it.ID = real
			}
			items[i] = it
		}
		return Snapshot{tasks: s.tasks, items: items, regions: s.regions}

	case SetRegions:
		regions := append([]geo.Region(nil), c.Regions...)
		SortRegions(regions)
		return Snapshot{tasks: s.tasks, items: s.items, regions: regions}
	}
	return s
}

// withTask upserts t with a fresh UpdatedAt and re-sorts.
func (s Snapshot) withTask(t geo.Task, now time.Time) Snapshot {
	t.UpdatedAt = s.stamp(now)

	tasks := make([]geo.Task, 0, len(s.tasks)+1)
	for _, existing := range s.tasks {
		if existing.ID != t.ID {
			tasks = append(tasks, existing)
		}
	}
	tasks = append(tasks, t)
	sortTasks(tasks)
	return Snapshot{tasks: tasks, items: s.items, regions: s.regions}
}

// withItem upserts it, keeping its position if it already exists.
func (s Snapshot) withItem(it geo.Item) Snapshot {
	items := make([]geo.Item, len(s.items), len(s.items)+1)
	copy(items, s.items)
	if i := s.itemIndex(it.ID); i >= 0 {
		items[i] = it
	} else {
		items = append(items, it)
	}
	return Snapshot{tasks: s.tasks, items: items, regions: s.regions}
}

// stamp returns now, or one nanosecond past the newest UpdatedAt when the
// clock has not moved, so the latest mutation always sorts first.
func (s Snapshot) stamp(now time.Time) time.Time {
	if len(s.tasks) > 0 {
		if newest := s.tasks[0].UpdatedAt; !now.After(newest) {
			return newest.Add(time.Nanosecond)
		}
	}
	return now
}
