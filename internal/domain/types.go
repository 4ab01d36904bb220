package domain

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusCompleted Status = "completed"
)

// LiveStatuses are the statuses that consume capacity.
var LiveStatuses = []Status{StatusPending, StatusActive}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCancelled, StatusExpired, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusExpired, StatusCompleted:
		return true
	}
	return false
}

func (s Status) IsLive() bool {
	return s == StatusPending || s == StatusActive
}

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry is either a polygon ring or a circle (Center + RadiusMeters).
type Geometry struct {
	Ring         []Point `json:"ring,omitempty"`
	Center       *Point  `json:"center,omitempty"`
	RadiusMeters float64 `json:"radius_m,omitempty"`
}

func (g Geometry) IsCircle() bool {
	return g.Center != nil && g.RadiusMeters > 0
}

func (g Geometry) IsZero() bool {
	return len(g.Ring) == 0 && g.Center == nil
}

type Zone struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Boundary  Geometry  `json:"boundary"`
	Capacity  int       `json:"capacity"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Slot struct {
	ZoneID   int64    `json:"zone_id"`
	ID       string   `json:"id"`
	Position int      `json:"position"`
	Tag      string   `json:"tag"`
	Geometry Geometry `json:"geometry"`
}

type Reservation struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"user_id"`
	ZoneID      int64      `json:"zone_id"`
	SlotID      *string    `json:"slot_id,omitempty"`
	Window      Window     `json:"window"`
	Status      Status     `json:"status"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// OnSlot reports whether r targets slotID.
func (r Reservation) OnSlot(slotID string) bool {
	return r.SlotID != nil && *r.SlotID == slotID
}

// HoldView is a reservation enriched for listing.
type HoldView struct {
	Reservation
	ZoneName string `json:"zone_name"`
	SlotTag  string `json:"slot_tag,omitempty"`
}
