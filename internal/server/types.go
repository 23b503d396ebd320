package server

import (
	"strconv"

	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/session"
)

type renameRequest struct {
	Name string `json:"name"`
}

type geometryRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Radius    *float64 `json:"radius" binding:"required"`
}

type detailsRequest struct {
	Details string `json:"details"`
}

type taskResponse struct {
	geo.Task
	Items []geo.Item `json:"items"`
}

type flushResponse struct {
	SessionID   string           `json:"sessionId"`
	TaskID      geo.TaskID       `json:"taskId"`
	TaskUpdated bool             `json:"taskUpdated"`
	Inserted    map[string]int64 `json:"inserted"`
	Updated     int              `json:"updated"`
	Deleted     int              `json:"deleted"`
	DurationMS  int64            `json:"durationMs"`
	Error       string           `json:"error,omitempty"`
}

func newFlushResponse(res session.FlushResult) flushResponse {
	out := flushResponse{
		SessionID:   res.SessionID,
		TaskID:      res.TaskID,
		TaskUpdated: res.TaskUpdated,
		Inserted:    make(map[string]int64, len(res.Inserted)),
		Updated:     res.Updated,
		Deleted:     res.Deleted,
		DurationMS:  res.Duration.Milliseconds(),
	}
	for temp, real := range res.Inserted {
		out.Inserted[strconv.FormatInt(int64(temp), 10)] = int64(real)
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}
