package domain

import "time"

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewWindow(start, end time.Time) (Window, error) {
	w := Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// InstantWindow is the degenerate view of a single instant. Overlapping it
// is equivalent to containing now.
func InstantWindow(now time.Time) Window {
	return Window{Start: now, End: now.Add(time.Nanosecond)}
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return Errorf(ErrValidation, "window start and end are required")
	}
	if !w.Start.Before(w.End) {
		return Errorf(ErrValidation, "window start %s must be before end %s",
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// Overlaps uses half-open semantics, so touching endpoints do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

func (w Window) Contains(t time.Time) bool {
	return IsWithin(t, w.Start, w.End)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func IsFuture(instant, now time.Time) bool {
	return instant.After(now)
}

// IsWithin is inclusive of start and exclusive of end.
func IsWithin(now, start, end time.Time) bool {
	return !now.Before(start) && now.Before(end)
}

func IsExpired(end, now time.Time) bool {
	return end.Before(now)
}
