package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/park-go/internal/domain"
)

type ZoneRepo interface {
	Create(ctx context.Context, z domain.Zone) (int64, error)
	Update(ctx context.Context, z domain.Zone) error
	Get(ctx context.Context, id int64) (*domain.Zone, error)
	// Lock reads the zone and serializes admission against it until the
	// surrounding transaction ends.
	Lock(ctx context.Context, id int64) (*domain.Zone, error)
	List(ctx context.Context) ([]domain.Zone, error)
	ListSlots(ctx context.Context, zoneID int64) ([]domain.Slot, error)
	GetSlot(ctx context.Context, zoneID int64, slotID string) (*domain.Slot, error)
	UpsertSlots(ctx context.Context, zoneID int64, slots []domain.Slot) error
}

type ReservationRepo interface {
	Insert(ctx context.Context, r domain.Reservation) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	// FindLive returns the caller's pending or active reservation in the zone.
	FindLive(ctx context.Context, userID string, zoneID int64) (*domain.Reservation, error)
	// ListLive returns pending and active reservations in the zone whose
	// window overlaps view.
	ListLive(ctx context.Context, zoneID int64, view domain.Window) ([]domain.Reservation, error)
	// ListByUser returns every reservation of the user, latest window end first.
	ListByUser(ctx context.Context, userID string) ([]domain.HoldView, error)
	// CompareAndSetStatus moves id from one status to another. It reports
	// false when the record is no longer in from.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.Status, activatedAt *time.Time, now time.Time) (bool, error)
	// ListDueForExpiry pages live reservations with window end before now,
	// ordered by id and starting after the given cursor.
	ListDueForExpiry(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]domain.Reservation, error)
	// ListDueForActivation pages pending reservations whose window contains now.
	ListDueForActivation(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]domain.Reservation, error)
}

// Tx exposes repositories bound to one handle, a transaction or the pool.
type Tx interface {
	Zones() ZoneRepo
	Reservations() ReservationRepo
}

// Store is the storage port implemented by the postgres and sqlite adapters.
type Store interface {
	Tx
	// RunTx runs fn in a serializable read-write transaction.
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
