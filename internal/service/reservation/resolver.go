package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/ledger"
	"github.com/kirinyoku/park-go/internal/repository"
	"github.com/kirinyoku/park-go/internal/uow"
)

type HoldRequest struct {
	UserID string
	ZoneID int64
	// SlotID is nil for a zone-level hold.
	SlotID *string
	Window domain.Window
	// Arrival marks a request made on site: the hold starts now and is
	// created active, or converts the caller's pending hold.
	Arrival bool
}

type HoldResult struct {
	Reservation domain.Reservation
	// Converted is set when an existing hold was checked in instead of a
	// new one being created.
	Converted bool
}

// RequestHold admits or rejects a hold against the zone's capacity.
//
// Returns an error of kind:
//   - domain.ErrValidation for malformed input or a window in the past.
//   - domain.ErrRateLimited when the caller exceeded the request budget.
//   - domain.ErrNotFound when the zone or slot does not exist.
//   - domain.ErrDuplicateHold when the caller already holds a live
//     reservation in the zone that cannot be converted.
//   - domain.ErrCapacityExceeded when the window does not fit.
func (s *Service) RequestHold(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	const op = "service.reservation.RequestHold"

	now := s.clock.Now()

	if err := s.validate(req, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.limiter != nil {
		ok, _, retry, err := s.limiter.Allow(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", op, domain.RateLimited(retry))
		}
	}

	var result *HoldResult

	err := s.uow.DoRetry(ctx, s.cfg.MaxAttempts, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		res, changed, err := s.admit(ctx, tx, req, now)
		if err != nil {
			return err
		}

		result = res

		if changed {
			after(func(ctx context.Context) {
				s.notify(ctx, req.ZoneID)
			})
		}

		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%s: %w", op, duplicateHold(req.UserID, req.ZoneID))
		case errors.Is(err, repository.ErrSerialization):
			return nil, fmt.Errorf("%s: %w", op, contendedZone(req.ZoneID))
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (s *Service) validate(req HoldRequest, now time.Time) error {
	if strings.TrimSpace(req.UserID) == "" {
		return domain.Errorf(domain.ErrValidation, "user id is required")
	}

	if req.ZoneID <= 0 {
		return domain.Errorf(domain.ErrValidation, "zone id must be positive")
	}

	if req.SlotID != nil && strings.TrimSpace(*req.SlotID) == "" {
		return domain.Errorf(domain.ErrValidation, "slot id must not be empty")
	}

	if err := req.Window.Validate(); err != nil {
		return err
	}

	if s.cfg.MaxHoldDuration > 0 && req.Window.Duration() > s.cfg.MaxHoldDuration {
		return domain.Errorf(domain.ErrValidation,
			"window of %s exceeds the maximum of %s", req.Window.Duration(), s.cfg.MaxHoldDuration)
	}

	if req.Arrival {
		drift := req.Window.Start.Sub(now)
		if drift < 0 {
			drift = -drift
		}
		if drift > s.cfg.ArrivalGrace {
			return domain.Errorf(domain.ErrValidation,
				"arrival window must start within %s of now", s.cfg.ArrivalGrace)
		}
	} else if !domain.IsFuture(req.Window.Start, now) {
		return domain.Errorf(domain.ErrValidation, "window start must be in the future")
	}

	if !domain.IsFuture(req.Window.End, now) {
		return domain.Errorf(domain.ErrValidation, "window end must be in the future")
	}

	return nil
}

// admit runs inside one transaction with the zone row locked.
func (s *Service) admit(
	ctx context.Context,
	tx repository.Tx,
	req HoldRequest,
	now time.Time,
) (*HoldResult, bool, error) {
	zone, err := tx.Zones().Lock(ctx, req.ZoneID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, zoneNotFound(req.ZoneID)
		}
		return nil, false, err
	}

	if !zone.Active {
		return nil, false, domain.Errorf(domain.ErrValidation,
			"zone %d is not accepting reservations", zone.ID)
	}

	if req.SlotID != nil {
		if _, err := tx.Zones().GetSlot(ctx, zone.ID, *req.SlotID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, false, slotNotFound(zone.ID, *req.SlotID)
			}
			return nil, false, err
		}
	}

	existing, err := tx.Reservations().FindLive(ctx, req.UserID, zone.ID)
	if err == nil && domain.IsExpired(existing.Window.End, now) {
		// The sweeper has not reached this hold yet.
		if err := s.expireLapsed(ctx, tx, *existing, now); err != nil {
			return nil, false, err
		}
		existing, err = nil, repository.ErrNotFound
	}

	switch {
	case err == nil:
		if req.Arrival && existing.Window.Overlaps(req.Window) && existing.Window.Contains(now) {
			return s.convert(ctx, tx, *existing, now)
		}
		return nil, false, duplicateHold(req.UserID, zone.ID)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}

	holds, err := tx.Reservations().ListLive(ctx, zone.ID, req.Window)
	if err != nil {
		return nil, false, err
	}

	usage := ledger.Compute(zone.Capacity, holds, req.Window)
	if usage.Full() {
		return nil, false, domain.Errorf(domain.ErrCapacityExceeded,
			"zone %d is full for [%s, %s): %d of %d in use",
			zone.ID, req.Window.Start.Format(time.RFC3339), req.Window.End.Format(time.RFC3339),
			usage.Consumed, usage.Capacity)
	}

	if req.SlotID != nil && ledger.SlotConsumed(holds, *req.SlotID, req.Window) > 0 {
		return nil, false, domain.Errorf(domain.ErrCapacityExceeded,
			"slot %q in zone %d is taken for the requested window", *req.SlotID, zone.ID)
	}

	r := domain.Reservation{
		ID:        uuid.New(),
		UserID:    req.UserID,
		ZoneID:    zone.ID,
		SlotID:    req.SlotID,
		Window:    req.Window,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.Arrival {
		at := now
		r.Status = domain.StatusActive
		r.ActivatedAt = &at
	}

	if err := tx.Reservations().Insert(ctx, r); err != nil {
		return nil, false, err
	}

	return &HoldResult{Reservation: r}, true, nil
}

// expireLapsed moves the caller's ended hold to expired inside the
// admission transaction.
func (s *Service) expireLapsed(
	ctx context.Context,
	tx repository.Tx,
	r domain.Reservation,
	now time.Time,
) error {
	next, changed, err := domain.Apply(r, domain.EventExpire, now)
	if err != nil || !changed {
		return err
	}

	ok, err := tx.Reservations().CompareAndSetStatus(ctx, r.ID, r.Status, next, nil, now)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("reservation %s left %s: %w", r.ID, r.Status, repository.ErrSerialization)
	}
	return nil
}

// convert checks in the caller's existing hold. An already active hold is
// returned unchanged.
func (s *Service) convert(
	ctx context.Context,
	tx repository.Tx,
	existing domain.Reservation,
	now time.Time,
) (*HoldResult, bool, error) {
	next, changed, err := domain.Apply(existing, domain.EventCheckIn, now)
	if err != nil {
		return nil, false, err
	}

	if !changed {
		return &HoldResult{Reservation: existing, Converted: true}, false, nil
	}

	at := now
	ok, err := tx.Reservations().CompareAndSetStatus(ctx, existing.ID, existing.Status, next, &at, now)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("reservation %s moved during check-in: %w",
			existing.ID, repository.ErrSerialization)
	}

	existing.Status = next
	existing.ActivatedAt = &at
	existing.UpdatedAt = now

	return &HoldResult{Reservation: existing, Converted: true}, true, nil
}
