package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/service/admin"
	"github.com/kirinyoku/park-go/internal/service/reservation"
)

// @Summary  Create zone
// @Tags     admin
// @Param    X-Admin-Token  header  string  true  "admin token"
// @Param    req  body  CreateZoneRequest  true  "payload"
// @Success  201  {object}  domain.Zone
// @Failure  400  {object}  ErrorResponse
// @Router   /admin/zones [post]
func (h *handlers) createZone(c *gin.Context) {
	var req CreateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	z, err := h.svcs.Admin.CreateZone(c.Request.Context(), admin.ZoneInput{
		Name:     req.Name,
		Boundary: req.Boundary,
		Capacity: req.Capacity,
		Active:   active,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, z)
}

// @Summary  Edit zone capacity, boundary, name or active flag
// @Tags     admin
// @Param    X-Admin-Token  header  string  true  "admin token"
// @Param    id   path  int  true  "Zone ID"
// @Param    req  body  UpdateZoneRequest  true  "payload"
// @Success  200  {object}  domain.Zone
// @Failure  404  {object}  ErrorResponse
// @Router   /admin/zones/{id} [patch]
func (h *handlers) updateZone(c *gin.Context) {
	zoneID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	var req UpdateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	z, err := h.svcs.Admin.UpdateZone(c.Request.Context(), zoneID, admin.ZonePatch{
		Name:     req.Name,
		Boundary: req.Boundary,
		Capacity: req.Capacity,
		Active:   req.Active,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, z)
}

// @Summary  Insert or replace zone slots
// @Tags     admin
// @Param    X-Admin-Token  header  string  true  "admin token"
// @Param    id   path  int  true  "Zone ID"
// @Param    req  body  PutSlotsRequest  true  "payload"
// @Success  200  {array}  domain.Slot
// @Router   /admin/zones/{id}/slots [put]
func (h *handlers) putSlots(c *gin.Context) {
	zoneID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	var req PutSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	slots := make([]domain.Slot, 0, len(req.Slots))
	for _, s := range req.Slots {
		slots = append(slots, domain.Slot{
			ZoneID:   zoneID,
			ID:       s.ID,
			Position: s.Position,
			Tag:      s.Tag,
			Geometry: s.Geometry,
		})
	}

	out, err := h.svcs.Admin.PutSlots(c.Request.Context(), zoneID, slots)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary  Cancel any hold
// @Tags     admin
// @Param    X-Admin-Token  header  string  true  "admin token"
// @Param    id  path  string  true  "Reservation ID (uuid)"
// @Success  200  {object}  domain.Reservation
// @Router   /admin/holds/{id} [delete]
func (h *handlers) adminCancelHold(c *gin.Context) {
	h.transition(c, h.svcs.Reservation.Cancel, reservation.Requester{Admin: true})
}
