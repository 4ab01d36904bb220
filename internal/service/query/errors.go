package query

import "github.com/kirinyoku/park-go/internal/domain"

func zoneNotFound(zoneID int64) error {
	return domain.Errorf(domain.ErrNotFound, "zone %d not found", zoneID)
}
