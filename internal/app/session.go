package app

import (
	"context"
	"fmt"

	"github.com/josephgoksu/geotask/internal/cache"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/logger"
	"github.com/josephgoksu/geotask/internal/session"
	"github.com/josephgoksu/geotask/internal/telemetry"
)

// BeginEditing opens an editing session for a task. Any flush still running
// for the same task is waited for first, and entities a failed flush left
// behind are carried into the new session.
func (e *Engine) BeginEditing(ctx context.Context, taskID geo.TaskID) (string, error) {
	if _, ok := e.cache.GetTask(taskID); !ok {
		return "", fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}

	for {
		e.mu.Lock()
		if e.active != nil {
			e.mu.Unlock()
			return "", ErrSessionActive
		}
		done, flushing := e.pending[taskID]
		if !flushing {
			tr := session.NewTracker(taskID)
			if d, ok := e.carry[taskID]; ok {
				tr.Merge(d)
				delete(e.carry, taskID)
			}
			e.active = tr
			e.mu.Unlock()

			logger.SetSession(tr.ID(), int64(taskID))
			e.log.Debug("session started", "session_id", tr.ID(), "task_id", taskID)
			return tr.ID(), nil
		}
		e.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// ActiveSession returns the task of the open session, if any.
func (e *Engine) ActiveSession() (geo.TaskID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return 0, false
	}
	return e.active.TaskID(), true
}

// EndEditing closes the open session and flushes it in the background. The
// returned channel yields the result once; callers may ignore it. After the
// flush, temporary item ids are replaced in the cache and regions are
// reconciled.
func (e *Engine) EndEditing(ctx context.Context) (<-chan session.FlushResult, error) {
	e.mu.Lock()
	tr := e.active
	if tr == nil {
		e.mu.Unlock()
		return nil, ErrNoSession
	}
	e.active = nil
	snap := e.cache.Snapshot()
	done := make(chan struct{})
	e.pending[tr.TaskID()] = done
	e.flushes.Add(1)
	e.mu.Unlock()

	logger.SetSession("", 0)
	out := make(chan session.FlushResult, 1)
	go e.flush(context.WithoutCancel(ctx), snap, tr, done, out)
	return out, nil
}

func (e *Engine) flush(ctx context.Context, snap cache.Snapshot, tr *session.Tracker, done chan struct{}, out chan<- session.FlushResult) {
	var res session.FlushResult
	defer func() {
		e.mu.Lock()
		if e.pending[tr.TaskID()] == done {
			delete(e.pending, tr.TaskID())
		}
		e.mu.Unlock()
		close(done)
		out <- res
		close(out)
		e.flushes.Done()
	}()
	defer logger.Recover(e.log, "flush")

	res = e.flusher.Flush(ctx, snap, tr)
	if len(res.Inserted) > 0 {
		e.cache.Dispatch(cache.ReassignItemIDs{IDs: res.Inserted})
	}
	if res.Err != nil && !res.Pending.Empty() {
		e.mu.Lock()
		e.carry[tr.TaskID()] = res.Pending
		e.mu.Unlock()
	}
	if !tr.Empty() {
		telemetry.SessionFlushed(e.telemetry, res)
	}
	e.reconcile(ctx)
}

// Settle waits for any in-flight flush of a task.
func (e *Engine) Settle(ctx context.Context, taskID geo.TaskID) error {
	e.mu.Lock()
	done, ok := e.pending[taskID]
	e.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns what a failed flush left unpersisted for a task.
func (e *Engine) Pending(taskID geo.TaskID) session.Dirty {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.carry[taskID]
}

// requireSession returns the active tracker when it edits taskID.
// Callers hold e.mu.
func (e *Engine) requireSession(taskID geo.TaskID) (*session.Tracker, error) {
	if e.active == nil || e.active.TaskID() != taskID {
		return nil, fmt.Errorf("%w: task %d", ErrNoSession, taskID)
	}
	return e.active, nil
}
