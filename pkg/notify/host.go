package notify

import (
	"context"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
)

// Handle identifies a pending trigger registered with a Host
type Handle string

// Delivery is a trigger that reached its fire instant
type Delivery struct {
	Handle  Handle
	Payload models.Payload
	At      time.Time
}

// Host is the platform notification subsystem
type Host interface {
	// RequestPermission asks the user (once) whether notifications may be shown
	RequestPermission(ctx context.Context) (bool, error)
	// ScheduleAt registers a one-shot trigger for the given instant
	ScheduleAt(at time.Time, payload models.Payload) (Handle, error)
	// Cancel removes a pending trigger. Unknown handles are ignored.
	Cancel(h Handle) error
	// OnReceived installs the callback invoked when a trigger is delivered
	OnReceived(fn func(Delivery))
}
