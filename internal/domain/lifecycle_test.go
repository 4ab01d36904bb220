package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestApply(t *testing.T) {
	w := win(10, 70)
	inside := t0.Add(20 * time.Minute)
	before := t0
	after := t0.Add(71 * time.Minute)

	tests := []struct {
		name        string
		from        Status
		ev          Event
		now         time.Time
		want        Status
		wantChanged bool
		wantErr     error
	}{
		{"check-in inside window", StatusPending, EventCheckIn, inside, StatusActive, true, nil},
		{"check-in before window", StatusPending, EventCheckIn, before, StatusPending, false, ErrInvalidTransition},
		{"check-in at end", StatusPending, EventCheckIn, w.End, StatusPending, false, ErrInvalidTransition},
		{"check-in on active is no-op", StatusActive, EventCheckIn, inside, StatusActive, false, nil},
		{"complete active", StatusActive, EventComplete, inside, StatusCompleted, true, nil},
		{"complete pending", StatusPending, EventComplete, inside, StatusPending, false, ErrInvalidTransition},
		{"expire pending", StatusPending, EventExpire, after, StatusExpired, true, nil},
		{"expire active", StatusActive, EventExpire, after, StatusExpired, true, nil},
		{"expire before end", StatusActive, EventExpire, inside, StatusActive, false, ErrInvalidTransition},
		{"expire is idempotent", StatusExpired, EventExpire, after, StatusExpired, false, nil},
		{"cancel pending", StatusPending, EventCancel, before, StatusCancelled, true, nil},
		{"cancel active", StatusActive, EventCancel, inside, StatusCancelled, true, nil},
		{"cancel is idempotent", StatusCancelled, EventCancel, inside, StatusCancelled, false, nil},
		{"cancel expired", StatusExpired, EventCancel, after, StatusExpired, false, ErrInvalidTransition},
		{"check-in cancelled", StatusCancelled, EventCheckIn, inside, StatusCancelled, false, ErrInvalidTransition},
		{"expire completed", StatusCompleted, EventExpire, after, StatusCompleted, false, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Reservation{ID: uuid.New(), Window: w, Status: tt.from}
			got, changed, err := Apply(r, tt.ev, tt.now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || changed != tt.wantChanged {
				t.Fatalf("Apply = (%s, %v), want (%s, %v)", got, changed, tt.want, tt.wantChanged)
			}
		})
	}
}

func TestTerminalStatusesNeverMove(t *testing.T) {
	now := t0.Add(30 * time.Minute)
	events := []Event{EventCheckIn, EventComplete, EventExpire, EventCancel}
	for _, st := range []Status{StatusCancelled, StatusExpired, StatusCompleted} {
		for _, ev := range events {
			r := Reservation{ID: uuid.New(), Window: win(0, 10), Status: st}
			got, changed, _ := Apply(r, ev, now)
			if changed || got != st {
				t.Fatalf("%s on %s moved to %s", ev, st, got)
			}
		}
	}
}

func TestErrorCodes(t *testing.T) {
	err := Errorf(ErrCapacityExceeded, "zone %d is full", 7)
	if Code(err) != "capacity_exceeded" {
		t.Fatalf("code = %s", Code(err))
	}
	if Reason(err) != "zone 7 is full" {
		t.Fatalf("reason = %q", Reason(err))
	}
	if Code(errors.New("boom")) != "internal" {
		t.Fatalf("unknown errors must map to internal")
	}
	rl := RateLimited(2 * time.Second)
	var de *Error
	if !errors.As(rl, &de) || de.RetryAfter != 2*time.Second {
		t.Fatalf("rate limited error lost retry-after")
	}
}
