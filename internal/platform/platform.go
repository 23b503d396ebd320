// Package platform is the region-monitoring facility geotask runs on: a
// registration file holding the monitored region set, a registry of
// background handlers, and an inbox of region-crossing events.
package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/josephgoksu/geotask/internal/geo"
)

// DefaultTaskName is the identifier the correlator registers under.
const DefaultTaskName = "geotask-geofence"

// Monitor replaces the whole monitored region set at once.
type Monitor interface {
	// StartMonitoring replaces every monitored region with regions, all
	// delivered to the handler registered under taskName. An empty set
	// stops monitoring.
	StartMonitoring(ctx context.Context, taskName string, regions []geo.Region) error

	// Registered returns what is currently monitored. A platform that has
	// never been given a set returns an empty name and no regions.
	Registered(ctx context.Context) (string, []geo.Region, error)
}

// EventType is the direction of a region crossing.
type EventType string

const (
	Enter EventType = "enter"
	Exit  EventType = "exit"
)

// ParseEventType accepts "enter" or "exit" in any case.
func ParseEventType(s string) (EventType, error) {
	switch EventType(strings.ToLower(strings.TrimSpace(s))) {
	case Enter:
		return Enter, nil
	case Exit:
		return Exit, nil
	}
	return "", fmt.Errorf("unknown region event %q", s)
}

// Event is one region crossing reported by the platform.
type Event struct {
	Type     EventType `yaml:"event" json:"event"`
	RegionID string    `yaml:"region" json:"region"`
}

// Handler processes region events. It runs outside any editing session and
// must not panic or block for long.
type Handler func(ctx context.Context, ev Event)
