package reservation

import (
	"github.com/google/uuid"

	"github.com/kirinyoku/park-go/internal/domain"
)

func zoneNotFound(zoneID int64) error {
	return domain.Errorf(domain.ErrNotFound, "zone %d not found", zoneID)
}

func slotNotFound(zoneID int64, slotID string) error {
	return domain.Errorf(domain.ErrNotFound, "slot %q not found in zone %d", slotID, zoneID)
}

func reservationNotFound(id uuid.UUID) error {
	return domain.Errorf(domain.ErrNotFound, "reservation %s not found", id)
}

func duplicateHold(userID string, zoneID int64) error {
	return domain.Errorf(domain.ErrDuplicateHold,
		"user %s already has a live reservation in zone %d", userID, zoneID)
}

func contendedZone(zoneID int64) error {
	return domain.Errorf(domain.ErrCapacityExceeded,
		"zone %d is under contention and capacity could not be confirmed", zoneID)
}

func contendedReservation(id uuid.UUID) error {
	return domain.Errorf(domain.ErrStorageConflict,
		"reservation %s kept changing concurrently, retry", id)
}
