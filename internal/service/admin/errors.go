package admin

import "github.com/kirinyoku/park-go/internal/domain"

func zoneNotFound(zoneID int64) error {
	return domain.Errorf(domain.ErrNotFound, "zone %d not found", zoneID)
}

func zoneNameTaken(name string) error {
	return domain.Errorf(domain.ErrValidation, "zone %q already exists", name)
}
