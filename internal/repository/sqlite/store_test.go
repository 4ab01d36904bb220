package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/repository"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "park.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedZone(t *testing.T, s *Store, name string, capacity int, slots ...string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := s.Zones().Create(ctx, domain.Zone{Name: name, Capacity: capacity, Active: true})
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}
	var ss []domain.Slot
	for i, sid := range slots {
		ss = append(ss, domain.Slot{ID: sid, Position: i, Tag: "P" + sid[len(sid)-1:]})
	}
	if err := s.Zones().UpsertSlots(ctx, id, ss); err != nil {
		t.Fatalf("upsert slots: %v", err)
	}
	return id
}

func newRes(user string, zoneID int64, slot *string, startMin, endMin int, st domain.Status) domain.Reservation {
	return domain.Reservation{
		ID:     uuid.New(),
		UserID: user,
		ZoneID: zoneID,
		SlotID: slot,
		Window: domain.Window{
			Start: t0.Add(time.Duration(startMin) * time.Minute),
			End:   t0.Add(time.Duration(endMin) * time.Minute),
		},
		Status:    st,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}

func TestZoneRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	center := domain.Point{Lat: 1, Lng: 2}
	id, err := s.Zones().Create(ctx, domain.Zone{
		Name:     "North",
		Capacity: 3,
		Active:   true,
		Boundary: domain.Geometry{Center: &center, RadiusMeters: 40},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Zones().Create(ctx, domain.Zone{Name: "North", Capacity: 1}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate name err = %v, want ErrConflict", err)
	}

	z, err := s.Zones().Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if z.Capacity != 3 || !z.Active || !z.Boundary.IsCircle() || z.Boundary.RadiusMeters != 40 {
		t.Fatalf("unexpected zone %+v", z)
	}

	z.Capacity = 5
	z.Active = false
	if err := s.Zones().Update(ctx, *z); err != nil {
		t.Fatalf("update: %v", err)
	}
	z2, _ := s.Zones().Get(ctx, id)
	if z2.Capacity != 5 || z2.Active {
		t.Fatalf("update not applied: %+v", z2)
	}

	if _, err := s.Zones().Get(ctx, 999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing zone err = %v", err)
	}
}

func TestSlotsUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	zid := seedZone(t, s, "Z", 2, "slot-1", "slot-2")

	if err := s.Zones().UpsertSlots(ctx, zid, []domain.Slot{{ID: "slot-2", Position: 0, Tag: "B"}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	slots, err := s.Zones().ListSlots(ctx, zid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("got %d slots", len(slots))
	}
	sl, err := s.Zones().GetSlot(ctx, zid, "slot-2")
	if err != nil || sl.Tag != "B" {
		t.Fatalf("slot-2 = %+v, %v", sl, err)
	}
}

func TestOneLiveReservationPerUserZone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	zid := seedZone(t, s, "Z", 5)

	if err := s.Reservations().Insert(ctx, newRes("u1", zid, nil, 10, 70, domain.StatusPending)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := s.Reservations().Insert(ctx, newRes("u1", zid, nil, 100, 170, domain.StatusActive))
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("second live insert err = %v, want ErrConflict", err)
	}
	if err := s.Reservations().Insert(ctx, newRes("u1", zid, nil, 0, 5, domain.StatusExpired)); err != nil {
		t.Fatalf("terminal rows must not collide: %v", err)
	}

	live, err := s.Reservations().FindLive(ctx, "u1", zid)
	if err != nil || live.Status != domain.StatusPending {
		t.Fatalf("FindLive = %+v, %v", live, err)
	}
	if _, err := s.Reservations().FindLive(ctx, "u2", zid); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("FindLive for stranger err = %v", err)
	}
}

func TestListLiveOverlap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	zid := seedZone(t, s, "Z", 5, "slot-1")
	slot := "slot-1"

	for _, r := range []domain.Reservation{
		newRes("a", zid, &slot, 10, 70, domain.StatusPending),
		newRes("b", zid, nil, 70, 90, domain.StatusActive),
		newRes("c", zid, nil, 0, 100, domain.StatusCancelled),
	} {
		if err := s.Reservations().Insert(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	view := domain.Window{Start: t0.Add(60 * time.Minute), End: t0.Add(70 * time.Minute)}
	got, err := s.Reservations().ListLive(ctx, zid, view)
	if err != nil {
		t.Fatalf("ListLive: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "a" || !got[0].OnSlot("slot-1") {
		t.Fatalf("ListLive = %+v", got)
	}
}

func TestCompareAndSetStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	zid := seedZone(t, s, "Z", 5)
	r := newRes("u1", zid, nil, 10, 70, domain.StatusPending)
	if err := s.Reservations().Insert(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}

	at := t0.Add(15 * time.Minute)
	ok, err := s.Reservations().CompareAndSetStatus(ctx, r.ID, domain.StatusPending, domain.StatusActive, &at, at)
	if err != nil || !ok {
		t.Fatalf("CAS pending->active = %v, %v", ok, err)
	}
	ok, err = s.Reservations().CompareAndSetStatus(ctx, r.ID, domain.StatusPending, domain.StatusCancelled, nil, at)
	if err != nil || ok {
		t.Fatalf("stale CAS must not apply: %v, %v", ok, err)
	}

	got, _ := s.Reservations().Get(ctx, r.ID)
	if got.Status != domain.StatusActive || got.ActivatedAt == nil || !got.ActivatedAt.Equal(at) {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestDuePaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	zid := seedZone(t, s, "Z", 50)

	for i := 0; i < 5; i++ {
		if err := s.Reservations().Insert(ctx, newRes(uuid.NewString(), zid, nil, 0, 10, domain.StatusPending)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := s.Reservations().Insert(ctx, newRes("future", zid, nil, 30, 90, domain.StatusPending)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	now := t0.Add(20 * time.Minute)
	seen := 0
	after := uuid.Nil
	for {
		page, err := s.Reservations().ListDueForExpiry(ctx, now, after, 2)
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if len(page) == 0 {
			break
		}
		seen += len(page)
		after = page[len(page)-1].ID
	}
	if seen != 5 {
		t.Fatalf("paged %d due reservations, want 5", seen)
	}

	act, err := s.Reservations().ListDueForActivation(ctx, t0.Add(45*time.Minute), uuid.Nil, 10)
	if err != nil || len(act) != 1 || act[0].UserID != "future" {
		t.Fatalf("ListDueForActivation = %+v, %v", act, err)
	}
}

func TestListByUserEnriched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	zid := seedZone(t, s, "Garage", 5, "slot-1")
	slot := "slot-1"

	old := newRes("u1", zid, &slot, 0, 10, domain.StatusCompleted)
	cur := newRes("u1", zid, nil, 30, 90, domain.StatusPending)
	for _, r := range []domain.Reservation{old, cur} {
		if err := s.Reservations().Insert(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	views, err := s.Reservations().ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(views) != 2 || views[0].ID != cur.ID || views[1].ID != old.ID {
		t.Fatalf("expected latest window end first, got %+v", views)
	}
	if views[1].ZoneName != "Garage" || views[1].SlotTag != "P1" {
		t.Fatalf("missing enrichment: %+v", views[1])
	}
}

func TestRunTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	zid := seedZone(t, s, "Z", 5)

	boom := errors.New("boom")
	err := s.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Reservations().Insert(ctx, newRes("u1", zid, nil, 10, 20, domain.StatusPending)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunTx err = %v", err)
	}
	if _, err := s.Reservations().FindLive(ctx, "u1", zid); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("insert must be rolled back, got %v", err)
	}
}
