package app

import (
	"fmt"

	"github.com/josephgoksu/geotask/internal/cache"
	"github.com/josephgoksu/geotask/internal/geo"
)

// AddItem appends an empty, not-done item to a task under a temporary id.
// It reaches the store when the session ends.
func (e *Engine) AddItem(taskID geo.TaskID) (geo.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tr, err := e.requireSession(taskID)
	if err != nil {
		return geo.Item{}, err
	}
	if _, ok := e.cache.GetTask(taskID); !ok {
		return geo.Item{}, fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}

	it := geo.Item{ID: e.tempIDs.Next(), TaskID: taskID}
	e.cache.UpsertItem(it)
	tr.TouchItem(it.ID)
	return it, nil
}

// UpdateItemDetails sets an item's text.
func (e *Engine) UpdateItemDetails(id geo.ItemID, details string) error {
	return e.mutateItem(id, cache.SetItemDetails{ID: id, Details: details}, false)
}

// ToggleItemDone flips an item's done flag.
func (e *Engine) ToggleItemDone(id geo.ItemID) error {
	return e.mutateItem(id, cache.ToggleItem{ID: id}, false)
}

// DeleteItem removes an item. A temporary item is simply dropped; a
// persisted one is deleted from the store when the session ends.
func (e *Engine) DeleteItem(id geo.ItemID) error {
	return e.mutateItem(id, cache.RemoveItem{ID: id}, true)
}

func (e *Engine) mutateItem(id geo.ItemID, cmd cache.Command, remove bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := e.cache.GetItem(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	tr, err := e.requireSession(it.TaskID)
	if err != nil {
		return err
	}

	e.cache.Dispatch(cmd)
	if remove {
		tr.RemoveItem(id)
	} else {
		tr.TouchItem(id)
	}
	return nil
}
