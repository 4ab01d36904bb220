package query_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/kirinyoku/park-go/internal/clock"
	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/service/query"
	"github.com/kirinyoku/park-go/internal/service/reservation"
	"github.com/kirinyoku/park-go/internal/testutil"
)

type fixture struct {
	query  *query.Service
	resv   *reservation.Service
	clock  *clock.Manual
	zoneID int64
}

func newFixture(t *testing.T, capacity, slots int) *fixture {
	t.Helper()
	s := testutil.NewSQLiteStore(t)
	zoneID := testutil.SeedZone(t, s, "Zone A", capacity, slots)
	clk := clock.NewManual(testutil.T0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		query:  query.New(s, nil, clk, query.Config{}),
		resv:   reservation.New(s, nil, nil, clk, logger, reservation.Config{}),
		clock:  clk,
		zoneID: zoneID,
	}
}

func (f *fixture) hold(t *testing.T, user string, slot *string, startMin, endMin int) domain.Reservation {
	t.Helper()
	res, err := f.resv.RequestHold(context.Background(), reservation.HoldRequest{
		UserID: user,
		ZoneID: f.zoneID,
		SlotID: slot,
		Window: testutil.Window(startMin, endMin),
	})
	if err != nil {
		t.Fatalf("hold %s: %v", user, err)
	}
	return res.Reservation
}

func TestCancelFreesSlotImmediately(t *testing.T) {
	f := newFixture(t, 2, 2)
	ctx := context.Background()

	r := f.hold(t, "alice", testutil.Ptr("slot-1"), 10, 70)

	f.clock.Set(testutil.At(12))
	if _, err := f.resv.CheckIn(ctx, r.ID, reservation.Requester{UserID: "alice"}); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	statuses, err := f.query.GetSlotStatuses(ctx, f.zoneID)
	if err != nil {
		t.Fatalf("slot statuses: %v", err)
	}
	if !statuses[0].Occupied || statuses[0].ReservationStatus != domain.StatusActive || statuses[1].Occupied {
		t.Fatalf("before cancel = %+v", statuses)
	}

	if _, err := f.resv.Cancel(ctx, r.ID, reservation.Requester{UserID: "alice"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	statuses, err = f.query.GetSlotStatuses(ctx, f.zoneID)
	if err != nil {
		t.Fatalf("slot statuses: %v", err)
	}
	for _, st := range statuses {
		if st.Occupied {
			t.Fatalf("slot %s still occupied after cancel", st.SlotID)
		}
	}

	sum, err := f.query.GetZoneSummary(ctx, f.zoneID, nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Available != 2 || sum.ActiveCount != 0 {
		t.Fatalf("summary after cancel = %+v", sum)
	}
}

func TestGetZoneSummary(t *testing.T) {
	f := newFixture(t, 3, 0)
	ctx := context.Background()

	a := f.hold(t, "a", nil, 0+1, 60)
	f.hold(t, "b", nil, 30, 90)
	f.hold(t, "c", nil, 120, 180)

	f.clock.Set(testutil.At(2))
	if _, err := f.resv.CheckIn(ctx, a.ID, reservation.Requester{UserID: "a"}); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	tests := []struct {
		name        string
		view        *domain.Window
		active      int
		pending     int
		available   int
		wantErrKind error
	}{
		{"current instant", nil, 1, 0, 2, nil},
		{"overlapping window", testutil.Ptr(testutil.Window(45, 50)), 1, 1, 1, nil},
		{"whole afternoon", testutil.Ptr(testutil.Window(0, 240)), 1, 2, 0, nil},
		{"touching end is free", testutil.Ptr(testutil.Window(90, 120)), 0, 0, 3, nil},
		{"reversed view", testutil.Ptr(testutil.Window(50, 40)), 0, 0, 0, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := f.query.GetZoneSummary(ctx, f.zoneID, tt.view)
			if tt.wantErrKind != nil {
				if !errors.Is(err, tt.wantErrKind) {
					t.Fatalf("err = %v, want %v", err, tt.wantErrKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("summary: %v", err)
			}
			if sum.Capacity != 3 || sum.ActiveCount != tt.active || sum.PendingCount != tt.pending || sum.Available != tt.available {
				t.Fatalf("summary = %+v", sum)
			}
		})
	}
}

func TestUnknownZone(t *testing.T) {
	f := newFixture(t, 1, 0)
	ctx := context.Background()

	if _, err := f.query.GetZoneSummary(ctx, f.zoneID+1, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("summary err = %v", err)
	}
	if _, err := f.query.GetSlotStatuses(ctx, f.zoneID+1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("slots err = %v", err)
	}
	if _, err := f.query.GetZone(ctx, f.zoneID+1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("zone err = %v", err)
	}
}

func TestListZones(t *testing.T) {
	f := newFixture(t, 2, 2)
	ctx := context.Background()

	r := f.hold(t, "alice", testutil.Ptr("slot-2"), 1, 30)
	f.clock.Set(testutil.At(5))
	if _, err := f.resv.CheckIn(ctx, r.ID, reservation.Requester{UserID: "alice"}); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	zones, err := f.query.ListZones(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("got %d zones", len(zones))
	}

	z := zones[0]
	if z.Zone.Name != "Zone A" || z.Summary.Available != 1 || z.Summary.ActiveCount != 1 {
		t.Fatalf("overview = %+v", z)
	}
	if len(z.Slots) != 2 || z.Slots[0].Occupied || !z.Slots[1].Occupied || z.Slots[1].Tag != "P2" {
		t.Fatalf("slots = %+v", z.Slots)
	}
}
