package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/geo"
	"github.com/kirinyoku/park-go/internal/repository"
	redisrepo "github.com/kirinyoku/park-go/internal/repository/redis"
	"github.com/kirinyoku/park-go/internal/uow"
)

// Notifier receives a hint after a zone definition changed.
type Notifier interface {
	PublishZoneChanged(ctx context.Context, zoneID int64) error
}

type Service struct {
	store    repository.Store
	cache    *redisrepo.Cache
	notifier Notifier
	uow      *uow.UoW
}

func New(store repository.Store, cache *redisrepo.Cache, notifier Notifier) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		notifier: notifier,
		uow:      uow.NewUoW(store),
	}
}

type ZoneInput struct {
	Name     string          `json:"name"`
	Boundary domain.Geometry `json:"boundary"`
	Capacity int             `json:"capacity"`
	Active   bool            `json:"active"`
}

// ZonePatch carries the editable zone fields. Nil fields are left unchanged.
type ZonePatch struct {
	Name     *string          `json:"name,omitempty"`
	Boundary *domain.Geometry `json:"boundary,omitempty"`
	Capacity *int             `json:"capacity,omitempty"`
	Active   *bool            `json:"active,omitempty"`
}

// SeedInput describes a square zone split into equal slot strips.
type SeedInput struct {
	Name   string
	Center domain.Point
	// Half is the half side of the square in degrees.
	Half  float64
	Parts int
}

// CreateZone provisions a zone and returns it.
//
// Returns:
//   - error: domain.ErrValidation for bad input or a name already in use.
func (s *Service) CreateZone(ctx context.Context, in ZoneInput) (*domain.Zone, error) {
	const op = "service.admin.CreateZone"

	z := domain.Zone{
		Name:     strings.TrimSpace(in.Name),
		Boundary: in.Boundary,
		Capacity: in.Capacity,
		Active:   in.Active,
	}

	if err := validateZone(z); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out *domain.Zone
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		id, err := tx.Zones().Create(ctx, z)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return zoneNameTaken(z.Name)
			}
			return err
		}

		out, err = tx.Zones().Get(ctx, id)
		if err != nil {
			return err
		}

		after(func(ctx context.Context) { s.changed(ctx, id) })
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// UpdateZone applies patch to the zone. Lowering the capacity never touches
// existing holds; it only affects later admissions.
//
// Returns:
//   - error: domain.ErrNotFound if the zone does not exist.
//   - error: domain.ErrValidation for bad input.
func (s *Service) UpdateZone(ctx context.Context, zoneID int64, patch ZonePatch) (*domain.Zone, error) {
	const op = "service.admin.UpdateZone"

	var out *domain.Zone
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		z, err := tx.Zones().Lock(ctx, zoneID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return zoneNotFound(zoneID)
			}
			return err
		}

		if patch.Name != nil {
			z.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Boundary != nil {
			z.Boundary = *patch.Boundary
		}
		if patch.Capacity != nil {
			z.Capacity = *patch.Capacity
		}
		if patch.Active != nil {
			z.Active = *patch.Active
		}

		if err := validateZone(*z); err != nil {
			return err
		}

		if err := tx.Zones().Update(ctx, *z); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return zoneNameTaken(z.Name)
			}
			return err
		}

		out, err = tx.Zones().Get(ctx, zoneID)
		if err != nil {
			return err
		}

		after(func(ctx context.Context) { s.changed(ctx, zoneID) })
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// PutSlots inserts or replaces the given slots of the zone. Slots missing
// from the list are kept, since reservations may still point at them.
func (s *Service) PutSlots(ctx context.Context, zoneID int64, slots []domain.Slot) ([]domain.Slot, error) {
	const op = "service.admin.PutSlots"

	if err := validateSlots(slots); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out []domain.Slot
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		if _, err := tx.Zones().Lock(ctx, zoneID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return zoneNotFound(zoneID)
			}
			return err
		}

		if err := tx.Zones().UpsertSlots(ctx, zoneID, slots); err != nil {
			return err
		}

		var err error
		out, err = tx.Zones().ListSlots(ctx, zoneID)
		if err != nil {
			return err
		}

		after(func(ctx context.Context) { s.changed(ctx, zoneID) })
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// SeedZone creates an active zone covering a square around the center and
// splits it into Parts vertical slots named slot-1..slot-N with tags P1..PN.
// Capacity equals the number of slots.
func (s *Service) SeedZone(ctx context.Context, in SeedInput) (*domain.Zone, []domain.Slot, error) {
	const op = "service.admin.SeedZone"

	if in.Parts < 1 {
		return nil, nil, fmt.Errorf("%s: %w", op, domain.Errorf(domain.ErrValidation, "parts must be at least 1"))
	}
	if in.Half <= 0 {
		return nil, nil, fmt.Errorf("%s: %w", op, domain.Errorf(domain.ErrValidation, "half size must be positive"))
	}

	boundary, strips := geo.SquareStrips(in.Center, in.Half, in.Parts)

	z, err := s.CreateZone(ctx, ZoneInput{
		Name:     in.Name,
		Boundary: boundary,
		Capacity: in.Parts,
		Active:   true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	slots := make([]domain.Slot, 0, len(strips))
	for i, g := range strips {
		slots = append(slots, domain.Slot{
			ID:       fmt.Sprintf("slot-%d", i+1),
			Position: i + 1,
			Tag:      fmt.Sprintf("P%d", i+1),
			Geometry: g,
		})
	}

	out, err := s.PutSlots(ctx, z.ID, slots)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return z, out, nil
}

func (s *Service) changed(ctx context.Context, zoneID int64) {
	_ = s.cache.InvalidateZone(ctx, zoneID)
	if s.notifier != nil {
		_ = s.notifier.PublishZoneChanged(ctx, zoneID)
	}
}

func validateZone(z domain.Zone) error {
	if z.Name == "" {
		return domain.Errorf(domain.ErrValidation, "zone name is required")
	}
	if z.Capacity < 1 {
		return domain.Errorf(domain.ErrValidation, "zone capacity must be at least 1")
	}
	return validateGeometry("zone boundary", z.Boundary)
}

func validateSlots(slots []domain.Slot) error {
	if len(slots) == 0 {
		return domain.Errorf(domain.ErrValidation, "at least one slot is required")
	}

	seen := make(map[string]struct{}, len(slots))
	for _, sl := range slots {
		id := strings.TrimSpace(sl.ID)
		if id == "" || id != sl.ID {
			return domain.Errorf(domain.ErrValidation, "slot id %q is invalid", sl.ID)
		}
		if _, dup := seen[id]; dup {
			return domain.Errorf(domain.ErrValidation, "slot id %q is repeated", id)
		}
		seen[id] = struct{}{}

		if strings.TrimSpace(sl.Tag) == "" {
			return domain.Errorf(domain.ErrValidation, "slot %q needs a tag", id)
		}
		if err := validateGeometry("slot "+id+" geometry", sl.Geometry); err != nil {
			return err
		}
	}

	return nil
}

// validateGeometry accepts an empty geometry, a circle with a positive radius
// or a ring of at least three points.
func validateGeometry(what string, g domain.Geometry) error {
	if g.IsZero() {
		return nil
	}

	if g.Center != nil {
		if g.RadiusMeters <= 0 {
			return domain.Errorf(domain.ErrValidation, "%s: radius must be positive", what)
		}
		return validatePoint(what, *g.Center)
	}

	if len(g.Ring) < 3 {
		return domain.Errorf(domain.ErrValidation, "%s: ring needs at least 3 points", what)
	}
	for _, p := range g.Ring {
		if err := validatePoint(what, p); err != nil {
			return err
		}
	}

	return nil
}

func validatePoint(what string, p domain.Point) error {
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return domain.Errorf(domain.ErrValidation, "%s: point (%g, %g) out of range", what, p.Lat, p.Lng)
	}
	return nil
}
