package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/park-go/internal/clock"
	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/ledger"
	"github.com/kirinyoku/park-go/internal/repository"
	redisrepo "github.com/kirinyoku/park-go/internal/repository/redis"
)

type Config struct {
	// ZoneTTL bounds how long zone and slot definitions stay cached.
	ZoneTTL time.Duration
}

// Service answers read-only questions about zones. Occupancy is always
// recomputed from live reservations; only definitions are cached.
type Service struct {
	store repository.Store
	cache *redisrepo.Cache
	clock clock.Clock
	cfg   Config
}

func New(store repository.Store, cache *redisrepo.Cache, clk clock.Clock, cfg Config) *Service {
	if cfg.ZoneTTL <= 0 {
		cfg.ZoneTTL = 60 * time.Second
	}

	if clk == nil {
		clk = clock.NewSystem()
	}

	return &Service{
		store: store,
		cache: cache,
		clock: clk,
		cfg:   cfg,
	}
}

type ZoneSummary struct {
	ZoneID       int64         `json:"zone_id"`
	Capacity     int           `json:"capacity"`
	ActiveCount  int           `json:"active_count"`
	PendingCount int           `json:"pending_count"`
	Available    int           `json:"available"`
	View         domain.Window `json:"view"`
}

type SlotStatus struct {
	SlotID   string `json:"slot_id"`
	Tag      string `json:"tag"`
	Occupied bool   `json:"occupied"`
	// ReservationStatus is the status of the hold occupying the slot, if any.
	ReservationStatus domain.Status `json:"reservation_status,omitempty"`
}

type ZoneOverview struct {
	Zone    domain.Zone  `json:"zone"`
	Summary ZoneSummary  `json:"summary"`
	Slots   []SlotStatus `json:"slots"`
}

// GetZone returns a zone definition through the cache.
func (s *Service) GetZone(ctx context.Context, zoneID int64) (*domain.Zone, error) {
	const op = "service.query.GetZone"

	zone, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyZone(zoneID),
		s.cfg.ZoneTTL,
		func(ctx context.Context) (domain.Zone, error) {
			z, err := s.store.Zones().Get(ctx, zoneID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Zone{}, zoneNotFound(zoneID)
				}
				return domain.Zone{}, err
			}
			return *z, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &zone, nil
}

// GetZoneSummary reports capacity usage for the zone over view. A nil view
// means the current instant.
func (s *Service) GetZoneSummary(ctx context.Context, zoneID int64, view *domain.Window) (*ZoneSummary, error) {
	const op = "service.query.GetZoneSummary"

	w, err := s.resolveView(view)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	zone, err := s.GetZone(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	holds, err := s.store.Reservations().ListLive(ctx, zoneID, w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sum := summarize(*zone, holds, w)
	return &sum, nil
}

// GetSlotStatuses reports which slots are occupied at the current instant.
func (s *Service) GetSlotStatuses(ctx context.Context, zoneID int64) ([]SlotStatus, error) {
	const op = "service.query.GetSlotStatuses"

	if _, err := s.GetZone(ctx, zoneID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots, err := s.slots(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	w := domain.InstantWindow(s.clock.Now())

	holds, err := s.store.Reservations().ListLive(ctx, zoneID, w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slotStatuses(slots, holds, w), nil
}

// ListZones returns every zone with its usage and slot colors at the
// current instant.
func (s *Service) ListZones(ctx context.Context) ([]ZoneOverview, error) {
	const op = "service.query.ListZones"

	zones, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyZoneList(),
		s.cfg.ZoneTTL,
		func(ctx context.Context) ([]domain.Zone, error) {
			return s.store.Zones().List(ctx)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	w := domain.InstantWindow(s.clock.Now())
	out := make([]ZoneOverview, 0, len(zones))

	for _, z := range zones {
		slots, err := s.slots(ctx, z.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		holds, err := s.store.Reservations().ListLive(ctx, z.ID, w)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		out = append(out, ZoneOverview{
			Zone:    z,
			Summary: summarize(z, holds, w),
			Slots:   slotStatuses(slots, holds, w),
		})
	}

	return out, nil
}

// ListSlots returns the slot definitions of the zone through the cache.
func (s *Service) ListSlots(ctx context.Context, zoneID int64) ([]domain.Slot, error) {
	const op = "service.query.ListSlots"

	if _, err := s.GetZone(ctx, zoneID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots, err := s.slots(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slots, nil
}

func (s *Service) slots(ctx context.Context, zoneID int64) ([]domain.Slot, error) {
	return redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyZoneSlots(zoneID),
		s.cfg.ZoneTTL,
		func(ctx context.Context) ([]domain.Slot, error) {
			return s.store.Zones().ListSlots(ctx, zoneID)
		},
	)
}

func (s *Service) resolveView(view *domain.Window) (domain.Window, error) {
	if view == nil {
		return domain.InstantWindow(s.clock.Now()), nil
	}

	if err := view.Validate(); err != nil {
		return domain.Window{}, err
	}

	return *view, nil
}

func summarize(z domain.Zone, holds []domain.Reservation, w domain.Window) ZoneSummary {
	u := ledger.Compute(z.Capacity, holds, w)

	return ZoneSummary{
		ZoneID:       z.ID,
		Capacity:     u.Capacity,
		ActiveCount:  u.Active,
		PendingCount: u.Pending,
		Available:    u.Available,
		View:         w,
	}
}

func slotStatuses(slots []domain.Slot, holds []domain.Reservation, w domain.Window) []SlotStatus {
	occupied := ledger.OccupiedSlots(holds, w)

	out := make([]SlotStatus, 0, len(slots))
	for _, sl := range slots {
		st, ok := occupied[sl.ID]
		out = append(out, SlotStatus{
			SlotID:            sl.ID,
			Tag:               sl.Tag,
			Occupied:          ok,
			ReservationStatus: st,
		})
	}

	return out
}
