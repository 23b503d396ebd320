// Package correlator resolves region crossings to task names and notifies
// the user. It runs in the background, outside any editing session, and
// reads task names straight from the durable store.
package correlator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/logger"
	"github.com/josephgoksu/geotask/internal/memory"
	"github.com/josephgoksu/geotask/internal/metrics"
	"github.com/josephgoksu/geotask/internal/notify"
	"github.com/josephgoksu/geotask/internal/platform"
)

// Event is a region crossing as delivered by the platform.
type Event = platform.Event

// EventObserver is told the outcome of every event; telemetry hooks in here.
type EventObserver func(ev Event, delivered bool)

// Correlator turns Enter/Exit events into notifications.
type Correlator struct {
	lookup    memory.TaskNameLookup
	presenter notify.Presenter
	log       *slog.Logger
	metrics   *metrics.Metrics
	observe   EventObserver
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Correlator) { c.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Correlator) { c.metrics = m }
}

// WithObserver registers a callback run after each event.
func WithObserver(fn EventObserver) Option {
	return func(c *Correlator) { c.observe = fn }
}

// New returns a correlator reading names from lookup.
func New(lookup memory.TaskNameLookup, presenter notify.Presenter, opts ...Option) *Correlator {
	c := &Correlator{lookup: lookup, presenter: presenter, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handler adapts the correlator to the platform handler signature.
func (c *Correlator) Handler() platform.Handler {
	return c.Handle
}

// Handle processes one event. It never returns an error and never panics;
// anything it cannot resolve is logged and dropped.
func (c *Correlator) Handle(ctx context.Context, ev Event) {
	delivered := false
	defer func() {
		c.record(ev, delivered)
	}()
	defer logger.Recover(c.log, "correlator")

	title, body, err := c.resolve(ctx, ev)
	if err != nil {
		c.log.Warn("region event dropped", "event", ev.Type, "region_id", ev.RegionID, "error", err)
		return
	}

	if err := c.presenter.Present(ctx, title, body); err != nil {
		c.log.Warn("notification not presented", "event", ev.Type, "region_id", ev.RegionID, "error", err)
		return
	}
	delivered = true
	c.log.Debug("region event delivered", "event", ev.Type, "region_id", ev.RegionID)
}

func (c *Correlator) resolve(ctx context.Context, ev Event) (title, body string, err error) {
	id := strings.TrimSpace(ev.RegionID)
	if id == "" {
		return "", "", errors.New("empty region id")
	}
	taskID, err := geo.ParseTaskID(id)
	if err != nil {
		return "", "", fmt.Errorf("region id %q is not a task id", id)
	}

	name, err := c.lookup.TaskName(ctx, taskID)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return "", "", fmt.Errorf("task %d no longer exists", taskID)
		}
		return "", "", fmt.Errorf("lookup task %d: %w", taskID, err)
	}

	title, body = Message(ev.Type, name)
	if title == "" {
		return "", "", fmt.Errorf("unknown event type %q", ev.Type)
	}
	return title, body, nil
}

// Message returns the notification text for an event on task name.
func Message(typ platform.EventType, name string) (title, body string) {
	switch typ {
	case platform.Enter:
		return notify.Title("entered", name), fmt.Sprintf("You have arrived at %s.", name)
	case platform.Exit:
		return notify.Title("left", name), fmt.Sprintf("You have left %s.", name)
	}
	return "", ""
}

func (c *Correlator) record(ev Event, delivered bool) {
	outcome := metrics.EventDropped
	if delivered {
		outcome = metrics.EventDelivered
	}
	c.metrics.RegionEvent(string(ev.Type), outcome)
	if c.observe != nil {
		c.observe(ev, delivered)
	}
}
