package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/repository"
	"github.com/kirinyoku/park-go/internal/uow"
)

// Requester identifies who asks for a user-facing transition.
type Requester struct {
	UserID string
	Admin  bool
}

func (rq Requester) authorize(r domain.Reservation) error {
	if rq.Admin || (rq.UserID != "" && rq.UserID == r.UserID) {
		return nil
	}
	return domain.Errorf(domain.ErrForbidden, "reservation %s belongs to another user", r.ID)
}

// Cancel moves a pending or active hold to cancelled. Only the owner or an
// administrator may cancel. Cancelling a cancelled hold succeeds unchanged.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, rq Requester) (*domain.Reservation, error) {
	return s.transition(ctx, "service.reservation.Cancel", id, domain.EventCancel, rq.authorize)
}

// CheckIn activates a pending hold while now is inside its window.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID, rq Requester) (*domain.Reservation, error) {
	return s.transition(ctx, "service.reservation.CheckIn", id, domain.EventCheckIn, rq.authorize)
}

// Complete checks out an active hold.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, rq Requester) (*domain.Reservation, error) {
	return s.transition(ctx, "service.reservation.Complete", id, domain.EventComplete, rq.authorize)
}

// Activate is the automatic check-in driven by the sweeper.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return s.transition(ctx, "service.reservation.Activate", id, domain.EventCheckIn, nil)
}

// Expire moves a live hold whose window has ended to expired.
func (s *Service) Expire(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return s.transition(ctx, "service.reservation.Expire", id, domain.EventExpire, nil)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	const op = "service.reservation.Get"

	r, err := s.store.Reservations().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, reservationNotFound(id))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return r, nil
}

// ListHolds returns every reservation of the user, latest window end first.
func (s *Service) ListHolds(ctx context.Context, userID string) ([]domain.HoldView, error) {
	const op = "service.reservation.ListHolds"

	if userID == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.Errorf(domain.ErrValidation, "user id is required"))
	}

	views, err := s.store.Reservations().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if views == nil {
		views = []domain.HoldView{}
	}

	return views, nil
}

// transition reads the record, decides with domain.Apply and persists with a
// compare-and-set on the status it read. A lost race reruns the unit, which
// re-reads and re-decides.
func (s *Service) transition(
	ctx context.Context,
	op string,
	id uuid.UUID,
	ev domain.Event,
	authorize func(domain.Reservation) error,
) (*domain.Reservation, error) {
	var out *domain.Reservation

	err := s.uow.DoRetry(ctx, s.cfg.MaxAttempts, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		now := s.clock.Now()

		r, err := tx.Reservations().Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return reservationNotFound(id)
			}
			return err
		}

		if authorize != nil {
			if err := authorize(*r); err != nil {
				return err
			}
		}

		next, changed, err := domain.Apply(*r, ev, now)
		if err != nil {
			return err
		}

		if !changed {
			out = r
			return nil
		}

		var activatedAt *time.Time
		if next == domain.StatusActive {
			at := now
			activatedAt = &at
		}

		ok, err := tx.Reservations().CompareAndSetStatus(ctx, r.ID, r.Status, next, activatedAt, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("reservation %s left %s: %w", r.ID, r.Status, repository.ErrSerialization)
		}

		r.Status = next
		if activatedAt != nil {
			r.ActivatedAt = activatedAt
		}
		r.UpdatedAt = now
		out = r

		zoneID := r.ZoneID
		after(func(ctx context.Context) {
			s.notify(ctx, zoneID)
		})

		return nil
	})
	if err != nil {
		if repository.IsStorageConflict(err) {
			return nil, fmt.Errorf("%s: %w", op, contendedReservation(id))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
