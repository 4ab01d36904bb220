package httpgin

import (
	"time"

	"github.com/kirinyoku/park-go/internal/domain"
)

type CreateHoldRequest struct {
	UserID      string    `json:"user_id" binding:"required"`
	SlotID      *string   `json:"slot_id"`
	WindowStart time.Time `json:"window_start" binding:"required"`
	WindowEnd   time.Time `json:"window_end" binding:"required"`
	Arrival     bool      `json:"arrival"`
}

// ArrivalRequest is sent from the lot. The position is checked against the
// slot geometry, or the zone boundary for zone-level holds.
type ArrivalRequest struct {
	UserID    string    `json:"user_id" binding:"required"`
	SlotID    *string   `json:"slot_id"`
	Lat       *float64  `json:"lat" binding:"required"`
	Lng       *float64  `json:"lng" binding:"required"`
	WindowEnd time.Time `json:"window_end" binding:"required"`
}

type HoldResponse struct {
	ReservationID string        `json:"reservation_id"`
	Status        domain.Status `json:"status"`
	Converted     bool          `json:"converted"`
	Window        domain.Window `json:"window"`
}

type CreateZoneRequest struct {
	Name     string          `json:"name" binding:"required"`
	Boundary domain.Geometry `json:"boundary"`
	Capacity int             `json:"capacity" binding:"required,gt=0"`
	Active   *bool           `json:"active"`
}

type UpdateZoneRequest struct {
	Name     *string          `json:"name"`
	Boundary *domain.Geometry `json:"boundary"`
	Capacity *int             `json:"capacity" binding:"omitempty,gt=0"`
	Active   *bool            `json:"active"`
}

type PutSlotsRequest struct {
	Slots []SlotInput `json:"slots" binding:"required,min=1,dive"`
}

type SlotInput struct {
	ID       string          `json:"id" binding:"required"`
	Position int             `json:"position"`
	Tag      string          `json:"tag" binding:"required"`
	Geometry domain.Geometry `json:"geometry"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toHoldResponse(r domain.Reservation, converted bool) HoldResponse {
	return HoldResponse{
		ReservationID: r.ID.String(),
		Status:        r.Status,
		Converted:     converted,
		Window:        r.Window,
	}
}
