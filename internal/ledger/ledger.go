// Package ledger projects capacity usage from the set of reservations.
// Nothing here is persisted; every call recomputes from the records it is given.
package ledger

import "github.com/kirinyoku/park-go/internal/domain"

type Usage struct {
	Capacity  int `json:"capacity"`
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Consumed  int `json:"consumed"`
	Available int `json:"available"`
}

// Full reports whether no more holds fit in the view.
func (u Usage) Full() bool {
	return u.Consumed >= u.Capacity
}

// Compute counts live holds overlapping view. Terminal holds are ignored.
// Pending holds consume capacity for their whole window.
func Compute(capacity int, holds []domain.Reservation, view domain.Window) Usage {
	u := Usage{Capacity: capacity}
	for _, h := range holds {
		if !h.Status.IsLive() || !h.Window.Overlaps(view) {
			continue
		}
		switch h.Status {
		case domain.StatusPending:
			u.Pending++
		case domain.StatusActive:
			u.Active++
		}
	}
	u.Consumed = u.Pending + u.Active
	u.Available = max(0, capacity-u.Consumed)
	return u
}

// SlotConsumed counts live holds on slotID overlapping view.
func SlotConsumed(holds []domain.Reservation, slotID string, view domain.Window) int {
	n := 0
	for _, h := range holds {
		if h.Status.IsLive() && h.OnSlot(slotID) && h.Window.Overlaps(view) {
			n++
		}
	}
	return n
}

// OccupiedSlots maps each slot id with a live overlapping hold to that
// hold's status. Active wins over pending when both exist.
func OccupiedSlots(holds []domain.Reservation, view domain.Window) map[string]domain.Status {
	out := make(map[string]domain.Status)
	for _, h := range holds {
		if h.SlotID == nil || !h.Status.IsLive() || !h.Window.Overlaps(view) {
			continue
		}
		if cur, ok := out[*h.SlotID]; ok && cur == domain.StatusActive {
			continue
		}
		out[*h.SlotID] = h.Status
	}
	return out
}
