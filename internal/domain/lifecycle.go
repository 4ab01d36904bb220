package domain

import "time"

// Event drives a reservation through its lifecycle.
type Event string

const (
	EventCheckIn  Event = "check_in"
	EventComplete Event = "complete"
	EventExpire   Event = "expire"
	EventCancel   Event = "cancel"
)

// Target is the status an event leads to.
func (e Event) Target() Status {
	switch e {
	case EventCheckIn:
		return StatusActive
	case EventComplete:
		return StatusCompleted
	case EventExpire:
		return StatusExpired
	case EventCancel:
		return StatusCancelled
	}
	return ""
}

// Apply decides the outcome of ev on r at now. changed is false when r
// already sits in the target status; that case is a successful no-op.
func Apply(r Reservation, ev Event, now time.Time) (next Status, changed bool, err error) {
	target := ev.Target()
	if target == "" {
		return r.Status, false, Errorf(ErrValidation, "unknown event %q", ev)
	}

	if r.Status == target {
		return r.Status, false, nil
	}

	if r.Status.IsTerminal() {
		return r.Status, false, Errorf(ErrInvalidTransition,
			"reservation %s is %s, cannot %s", r.ID, r.Status, ev)
	}

	switch ev {
	case EventCheckIn:
		if !r.Window.Contains(now) {
			return r.Status, false, Errorf(ErrInvalidTransition,
				"check-in at %s is outside window [%s, %s)", now.Format(time.RFC3339),
				r.Window.Start.Format(time.RFC3339), r.Window.End.Format(time.RFC3339))
		}
	case EventComplete:
		if r.Status != StatusActive {
			return r.Status, false, Errorf(ErrInvalidTransition,
				"reservation %s is %s, only active holds can complete", r.ID, r.Status)
		}
	case EventExpire:
		if !IsExpired(r.Window.End, now) {
			return r.Status, false, Errorf(ErrInvalidTransition,
				"reservation %s window has not ended", r.ID)
		}
	}

	return target, true, nil
}
