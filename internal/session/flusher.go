package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/josephgoksu/geotask/internal/cache"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/memory"
	"github.com/josephgoksu/geotask/internal/metrics"
)

// Store is the durable store as seen by the flusher.
type Store interface {
	memory.Writer
	InTx(ctx context.Context, fn func(memory.Writer) error) error
}

// FlushResult reports what a flush wrote.
type FlushResult struct {
	SessionID   string
	TaskID      geo.TaskID
	TaskUpdated bool
	// Inserted maps each temporary item id to the id the store assigned.
	Inserted map[geo.ItemID]geo.ItemID
	Updated  int
	Deleted  int
	// Pending lists what was not persisted. It is empty on success.
	Pending  Dirty
	Duration time.Duration
	Err      error
}

// Writes returns the number of rows written.
func (r FlushResult) Writes() int {
	n := len(r.Inserted) + r.Updated + r.Deleted
	if r.TaskUpdated {
		n++
	}
	return n
}

// Flusher writes a session's dirty entities to the durable store.
type Flusher struct {
	store         Store
	transactional bool
	log           *slog.Logger
	metrics       *metrics.Metrics
}

// FlusherOption configures a Flusher.
type FlusherOption func(*Flusher)

// WithBestEffort disables the wrapping transaction. Each write stands alone;
// a failure is logged and the remaining writes are still attempted, so a
// flush can be partially persisted.
func WithBestEffort() FlusherOption {
	return func(f *Flusher) { f.transactional = false }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) FlusherOption {
	return func(f *Flusher) { f.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) FlusherOption {
	return func(f *Flusher) { f.metrics = m }
}

// NewFlusher returns a transactional flusher unless WithBestEffort is given.
func NewFlusher(store Store, opts ...FlusherOption) *Flusher {
	f := &Flusher{store: store, transactional: true, log: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// plan is the ordered write list for one flush.
type plan struct {
	task    *geo.Task
	inserts []geo.Item
	updates []geo.Item
	deletes []geo.ItemID
}

// buildPlan reads the final in-memory state of every dirty entity. The
// session task comes first so item rows never reference a missing parent.
func buildPlan(snap cache.Snapshot, tr *Tracker) plan {
	var p plan
	if t, ok := snap.Task(tr.TaskID()); ok {
		p.task = &t
	}

	d := tr.Dirty()
	for _, id := range d.Items {
		it, ok := snap.Item(id)
		if !ok || it.TaskID != tr.TaskID() {
			continue
		}
		if it.ID.IsTemporary() {
			p.inserts = append(p.inserts, it)
		} else {
			p.updates = append(p.updates, it)
		}
	}
	p.deletes = d.Removed
	return p
}

// Flush writes the session's dirty entities: task row, then item inserts,
// then item updates, then item deletes. The cache is never modified here;
// callers apply FlushResult.Inserted to it.
func (f *Flusher) Flush(ctx context.Context, snap cache.Snapshot, tr *Tracker) FlushResult {
	start := time.Now()
	res := FlushResult{
		SessionID: tr.ID(),
		TaskID:    tr.TaskID(),
		Inserted:  make(map[geo.ItemID]geo.ItemID),
	}

	if tr.Empty() {
		res.Duration = time.Since(start)
		return res
	}

	p := buildPlan(snap, tr)
	if p.task == nil {
		// Task deleted while the session was open; its rows went with it.
		f.log.Debug("flush skipped, task no longer exists", "session_id", tr.ID(), "task_id", tr.TaskID())
		res.Duration = time.Since(start)
		return res
	}

	if f.transactional {
		err := f.store.InTx(ctx, func(w memory.Writer) error {
			return f.write(ctx, w, p, &res, false)
		})
		if err != nil {
			res = FlushResult{
				SessionID: tr.ID(),
				TaskID:    tr.TaskID(),
				Inserted:  map[geo.ItemID]geo.ItemID{},
				Pending:   tr.Dirty(),
				Err:       fmt.Errorf("flush session %s: %w", tr.ID(), err),
			}
			res.Pending.Tasks = []geo.TaskID{tr.TaskID()}
		}
	} else {
		if err := f.write(ctx, f.store, p, &res, true); err != nil {
			res.Err = fmt.Errorf("flush session %s: %w", tr.ID(), err)
		}
	}

	res.Duration = time.Since(start)
	f.metrics.ObserveFlush(res.Duration)
	f.recordWrites(res)
	if res.Err != nil {
		f.metrics.FlushFailed()
		f.log.Error("session flush incomplete",
			"session_id", tr.ID(), "task_id", tr.TaskID(),
			"transactional", f.transactional, "error", res.Err)
		return res
	}
	f.log.Debug("session flushed",
		"session_id", tr.ID(), "task_id", tr.TaskID(),
		"inserted", len(res.Inserted), "updated", res.Updated, "deleted", res.Deleted)
	return res
}

// write performs the plan against w. With keepGoing set, failures are
// logged, recorded in res.Pending and the next write is attempted.
// Otherwise the first failure aborts.
func (f *Flusher) write(ctx context.Context, w memory.Writer, p plan, res *FlushResult, keepGoing bool) error {
	var errs []error
	fail := func(err error, attrs ...any) error {
		if !keepGoing {
			return err
		}
		f.log.Warn("flush write failed", append(attrs, "session_id", res.SessionID, "error", err)...)
		errs = append(errs, err)
		return nil
	}

	if err := w.UpdateTask(ctx, *p.task); err != nil {
		if err := fail(err, "task_id", p.task.ID); err != nil {
			return err
		}
		res.Pending.Tasks = append(res.Pending.Tasks, p.task.ID)
	} else {
		res.TaskUpdated = true
	}

	for _, it := range p.inserts {
		realID, err := w.InsertItem(ctx, it)
		if err != nil {
			if err := fail(err, "item_id", it.ID); err != nil {
				return err
			}
			res.Pending.Items = append(res.Pending.Items, it.ID)
			continue
		}
		res.Inserted[it.ID] = realID
	}

	for _, it := range p.updates {
		if err := w.UpdateItem(ctx, it); err != nil {
			if err := fail(err, "item_id", it.ID); err != nil {
				return err
			}
			res.Pending.Items = append(res.Pending.Items, it.ID)
			continue
		}
		res.Updated++
	}

	for _, id := range p.deletes {
		if err := w.DeleteItem(ctx, id); err != nil {
			if err := fail(err, "item_id", id); err != nil {
				return err
			}
			res.Pending.Removed = append(res.Pending.Removed, id)
			continue
		}
		res.Deleted++
	}

	return errors.Join(errs...)
}

func (f *Flusher) recordWrites(res FlushResult) {
	if res.TaskUpdated {
		f.metrics.FlushWrite(metrics.WriteTaskUpdate)
	}
	for range res.Inserted {
		f.metrics.FlushWrite(metrics.WriteItemInsert)
	}
	for i := 0; i < res.Updated; i++ {
		f.metrics.FlushWrite(metrics.WriteItemUpdate)
	}
	for i := 0; i < res.Deleted; i++ {
		f.metrics.FlushWrite(metrics.WriteItemDelete)
	}
}
