// Package permission reports and requests the location and notification
// permissions region monitoring depends on.
package permission

import (
	"context"
	"errors"
	"fmt"
)

// ErrPermissionDenied is returned when location monitoring is not allowed.
var ErrPermissionDenied = errors.New("location permission denied")

// Status is the state of a single permission.
type Status string

const (
	Undetermined Status = "undetermined"
	Granted      Status = "granted"
	Denied       Status = "denied"
)

// Kind names a permission.
type Kind string

const (
	ForegroundLocation Kind = "foreground_location"
	BackgroundLocation Kind = "background_location"
	Notifications      Kind = "notifications"
)

// Kinds lists every permission in display order.
var Kinds = []Kind{ForegroundLocation, BackgroundLocation, Notifications}

// ParseKind accepts the full name or the short forms used on the command line.
func ParseKind(s string) (Kind, error) {
	switch s {
	case string(ForegroundLocation), "foreground":
		return ForegroundLocation, nil
	case string(BackgroundLocation), "background":
		return BackgroundLocation, nil
	case string(Notifications), "notification", "notify":
		return Notifications, nil
	}
	return "", fmt.Errorf("unknown permission %q (expected foreground, background or notifications)", s)
}

// Provider is the platform permission facility.
type Provider interface {
	ForegroundStatus(ctx context.Context) (Status, error)
	BackgroundStatus(ctx context.Context) (Status, error)
	RequestForeground(ctx context.Context) (Status, error)
	RequestBackground(ctx context.Context) (Status, error)
	NotificationStatus(ctx context.Context) (Status, error)
	RequestNotifications(ctx context.Context) (Status, error)
}

// Check returns ErrPermissionDenied unless both location permissions are
// granted. It only reads statuses; it never prompts.
func Check(ctx context.Context, p Provider) error {
	fg, err := p.ForegroundStatus(ctx)
	if err != nil {
		return fmt.Errorf("read foreground status: %w", err)
	}
	if fg != Granted {
		return fmt.Errorf("%w: foreground location is %s", ErrPermissionDenied, fg)
	}
	bg, err := p.BackgroundStatus(ctx)
	if err != nil {
		return fmt.Errorf("read background status: %w", err)
	}
	if bg != Granted {
		return fmt.Errorf("%w: background location is %s", ErrPermissionDenied, bg)
	}
	return nil
}

// RequestAll asks for foreground location, then background location, then
// notifications. Background location is only requested once foreground is
// granted.
func RequestAll(ctx context.Context, p Provider) (map[Kind]Status, error) {
	out := make(map[Kind]Status, len(Kinds))

	fg, err := p.RequestForeground(ctx)
	if err != nil {
		return out, err
	}
	out[ForegroundLocation] = fg

	if fg == Granted {
		bg, err := p.RequestBackground(ctx)
		if err != nil {
			return out, err
		}
		out[BackgroundLocation] = bg
	} else {
		bg, err := p.BackgroundStatus(ctx)
		if err != nil {
			return out, err
		}
		out[BackgroundLocation] = bg
	}

	n, err := p.RequestNotifications(ctx)
	if err != nil {
		return out, err
	}
	out[Notifications] = n
	return out, nil
}
