package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/repository/sqlite"
)

// T0 is the reference instant used across service tests.
var T0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// At returns T0 shifted by m minutes.
func At(m int) time.Time {
	return T0.Add(time.Duration(m) * time.Minute)
}

// Window returns [T0+startMin, T0+endMin).
func Window(startMin, endMin int) domain.Window {
	return domain.Window{Start: At(startMin), End: At(endMin)}
}

// TB is the part of testing.TB the helpers need. GinkgoT satisfies it too.
type TB interface {
	Helper()
	TempDir() string
	Cleanup(func())
	Fatalf(format string, args ...any)
}

// NewSQLiteStore opens a fresh file-backed store in a temp dir.
func NewSQLiteStore(t TB) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.Config{
		Path:        filepath.Join(t.TempDir(), "park.db"),
		BusyTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// SeedZone creates an active zone with n slots named slot-1..slot-n.
func SeedZone(t TB, s *sqlite.Store, name string, capacity, n int) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := s.Zones().Create(ctx, domain.Zone{Name: name, Capacity: capacity, Active: true})
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}
	slots := make([]domain.Slot, 0, n)
	for i := 1; i <= n; i++ {
		slots = append(slots, domain.Slot{
			ID:       fmt.Sprintf("slot-%d", i),
			Position: i,
			Tag:      fmt.Sprintf("P%d", i),
		})
	}
	if err := s.Zones().UpsertSlots(ctx, id, slots); err != nil {
		t.Fatalf("create slots: %v", err)
	}
	return id
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Notifications records zone changed hints.
type Notifications struct {
	mu    sync.Mutex
	zones []int64
}

func (n *Notifications) PublishZoneChanged(_ context.Context, zoneID int64) error {
	n.mu.Lock()
	n.zones = append(n.zones, zoneID)
	n.mu.Unlock()
	return nil
}

func (n *Notifications) Zones() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int64(nil), n.zones...)
}
