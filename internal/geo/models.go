// Package geo holds the data model shared by every geotask component:
// tasks, their checklist items, and the geofence regions derived from them.
package geo

import (
	"strconv"
	"time"
)

// TaskID identifies a task row. Tasks are persisted when they are created,
// so a TaskID is always positive.
type TaskID int64

// ItemID identifies a checklist item. Positive ids are persisted, negative ids
// are temporary placeholders handed out before the item reaches the store.
// Zero is never assigned.
type ItemID int64

// IsTemporary reports whether the id is a placeholder for an unpersisted item.
func (id ItemID) IsTemporary() bool {
	return id < 0
}

// String returns the decimal form of the id.
func (id TaskID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseTaskID parses a region identifier or CLI argument into a TaskID.
func ParseTaskID(s string) (TaskID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return TaskID(n), nil
}

// Task is a named geofenced checklist.
type Task struct {
	ID        TaskID    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Radius    *float64  `json:"radius,omitempty"`
}

// HasGeometry reports whether latitude, longitude and radius are all present.
// Only tasks with complete geometry are monitored.
func (t Task) HasGeometry() bool {
	return t.Latitude != nil && t.Longitude != nil && t.Radius != nil
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	c := t
	c.Latitude = cloneFloat(t.Latitude)
	c.Longitude = cloneFloat(t.Longitude)
	c.Radius = cloneFloat(t.Radius)
	return c
}

// Item is a checklist entry owned by exactly one task.
type Item struct {
	ID      ItemID `json:"id"`
	TaskID  TaskID `json:"taskId"`
	Details string `json:"details"`
	Done    bool   `json:"done"`
}

// DoneInt returns the 0/1 form used by the items table.
func (i Item) DoneInt() int {
	if i.Done {
		return 1
	}
	return 0
}

// Region is the monitoring representation of a task with complete geometry.
type Region struct {
	Identifier    string  `json:"identifier" yaml:"identifier"`
	Latitude      float64 `json:"latitude" yaml:"latitude"`
	Longitude     float64 `json:"longitude" yaml:"longitude"`
	Radius        float64 `json:"radius" yaml:"radius"`
	NotifyOnEnter bool    `json:"notifyOnEnter" yaml:"notify_on_enter"`
	NotifyOnExit  bool    `json:"notifyOnExit" yaml:"notify_on_exit"`
}

// RegionFor derives the region of a task. The second return value is false
// when the task's geometry is incomplete.
func RegionFor(t Task) (Region, bool) {
	if !t.HasGeometry() {
		return Region{}, false
	}
	return Region{
		Identifier:    t.ID.String(),
		Latitude:      *t.Latitude,
		Longitude:     *t.Longitude,
		Radius:        *t.Radius,
		NotifyOnEnter: true,
		NotifyOnExit:  true,
	}, true
}

// Float returns a pointer to v. Handy for building geometry literals.
func Float(v float64) *float64 {
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
