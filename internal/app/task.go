package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/josephgoksu/geotask/internal/cache"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/memory"
)

// DefaultTaskName is the name a new task starts with.
const DefaultTaskName = "Untitled"

// AddTask creates a task in the store and the cache. Tasks are persisted
// immediately so they have a real id before any session edits them.
func (e *Engine) AddTask(ctx context.Context) (geo.Task, error) {
	t, err := e.store.CreateTask(ctx, DefaultTaskName, e.clock().UTC())
	if err != nil {
		return geo.Task{}, fmt.Errorf("add task: %w", err)
	}
	e.cache.UpsertTask(t)
	got, _ := e.cache.GetTask(t.ID)
	return got, nil
}

// DeleteTask removes a task and its items from the store and the cache, then
// reconciles so its region stops being monitored.
func (e *Engine) DeleteTask(ctx context.Context, id geo.TaskID) error {
	if err := e.Settle(ctx, id); err != nil {
		return err
	}
	if err := e.store.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		}
		return fmt.Errorf("delete task %d: %w", id, err)
	}

	e.mu.Lock()
	delete(e.carry, id)
	e.mu.Unlock()

	e.cache.RemoveTask(id)
	e.reconcile(ctx)
	return nil
}

// RenameTask sets a task's name in the cache. The active session must be
// editing the task.
func (e *Engine) RenameTask(id geo.TaskID, name string) error {
	return e.mutateTask(id, cache.RenameTask{ID: id, Name: name})
}

// UpdateTaskGeometry validates and sets a task's center and radius, then
// reconciles regions. A reconcile failure is not returned; see
// MonitoringError.
func (e *Engine) UpdateTaskGeometry(ctx context.Context, id geo.TaskID, lat, lon, radius float64) error {
	if err := geo.ValidateGeometry(lat, lon, radius); err != nil {
		return err
	}
	cmd := cache.SetGeometry{ID: id, Latitude: geo.Float(lat), Longitude: geo.Float(lon), Radius: geo.Float(radius)}
	if err := e.mutateTask(id, cmd); err != nil {
		return err
	}
	e.reconcile(ctx)
	return nil
}

// ClearTaskGeometry removes a task's geometry, which stops its monitoring.
func (e *Engine) ClearTaskGeometry(ctx context.Context, id geo.TaskID) error {
	if err := e.mutateTask(id, cache.SetGeometry{ID: id}); err != nil {
		return err
	}
	e.reconcile(ctx)
	return nil
}

func (e *Engine) mutateTask(id geo.TaskID, cmd cache.Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tr, err := e.requireSession(id)
	if err != nil {
		return err
	}
	if _, ok := e.cache.GetTask(id); !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	e.cache.Dispatch(cmd)
	tr.TouchTask(id)
	return nil
}
