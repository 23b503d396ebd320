package telemetry

import (
	"errors"

	"github.com/josephgoksu/geotask/internal/permission"
	"github.com/josephgoksu/geotask/internal/region"
	"github.com/josephgoksu/geotask/internal/session"
)

// Event names.
const (
	EventSessionFlushed    = "session_flushed"
	EventRegionsReconciled = "regions_reconciled"
	EventRegionEvent       = "region_event"
)

// SessionFlushed reports write counts of a flush.
func SessionFlushed(c Client, res session.FlushResult) {
	c.Track(EventSessionFlushed, Properties{
		"task_updated": res.TaskUpdated,
		"inserted":     len(res.Inserted),
		"updated":      res.Updated,
		"deleted":      res.Deleted,
		"success":      res.Err == nil,
		"duration_ms":  res.Duration.Milliseconds(),
	})
}

// RegionsReconciled reports a reconcile attempt. Only attempts that changed
// something or failed are sent.
func RegionsReconciled(c Client, out region.Outcome, err error) {
	if !out.Changed && err == nil {
		return
	}
	props := Properties{
		"regions": len(out.Regions),
		"success": err == nil,
	}
	if errors.Is(err, permission.ErrPermissionDenied) {
		props["reason"] = "permission_denied"
	}
	c.Track(EventRegionsReconciled, props)
}

// RegionEvent reports one background region crossing.
func RegionEvent(c Client, eventType string, delivered bool) {
	c.Track(EventRegionEvent, Properties{
		"type":      eventType,
		"delivered": delivered,
	})
}
