package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/kirinyoku/park-go/internal/clock"
	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/service/admin"
	"github.com/kirinyoku/park-go/internal/service/reservation"
	"github.com/kirinyoku/park-go/internal/testutil"
)

func TestZoneNotifierWithoutRedis(t *testing.T) {
	n := zoneNotifier(nil)
	if n != nil {
		t.Fatalf("zoneNotifier(nil) = %#v, want nil interface", n)
	}

	var an admin.Notifier = n
	if an != nil {
		t.Fatalf("admin notifier = %#v, want nil interface", an)
	}
}

func TestNewServicesWithoutRedis(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	zoneID := testutil.SeedZone(t, store, "Zone A", 2, 0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	svcs := NewServices(store, Deps{}, clock.NewManual(testutil.T0), logger, Config{})

	res, err := svcs.Reservation.RequestHold(ctx, reservation.HoldRequest{
		UserID: "alice",
		ZoneID: zoneID,
		Window: testutil.Window(10, 70),
	})
	if err != nil {
		t.Fatalf("hold: %v", err)
	}

	got, err := svcs.Reservation.Cancel(ctx, res.Reservation.ID, reservation.Requester{UserID: "alice"})
	if err != nil || got.Status != domain.StatusCancelled {
		t.Fatalf("cancel = %+v, %v", got, err)
	}

	if _, err := svcs.Admin.UpdateZone(ctx, zoneID, admin.ZonePatch{Name: testutil.Ptr("Zone B")}); err != nil {
		t.Fatalf("update zone: %v", err)
	}
}
