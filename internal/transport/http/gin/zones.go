package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary  List zones with live usage and slot colors
// @Tags     zones
// @Success  200  {array}  query.ZoneOverview
// @Router   /zones [get]
func (h *handlers) listZones(c *gin.Context) {
	zones, err := h.svcs.Query.ListZones(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	writeJSONWithETag(c, http.StatusOK, zones, cacheRevalidate)
}

// @Summary  Get zone definition
// @Tags     zones
// @Param    id  path  int  true  "Zone ID"
// @Success  200  {object}  domain.Zone
// @Failure  404  {object}  ErrorResponse
// @Router   /zones/{id} [get]
func (h *handlers) getZone(c *gin.Context) {
	zoneID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	z, err := h.svcs.Query.GetZone(c.Request.Context(), zoneID)
	if err != nil {
		respondErr(c, err)
		return
	}
	writeJSONWithETag(c, http.StatusOK, z, "public, max-age=60")
}

// @Summary  Zone capacity usage
// @Description  Counts live holds overlapping [from, to). Without from/to the current instant is used.
// @Tags     zones
// @Param    id    path   int     true   "Zone ID"
// @Param    from  query  string  false  "view start (RFC3339)"
// @Param    to    query  string  false  "view end (RFC3339)"
// @Success  200  {object}  query.ZoneSummary
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /zones/{id}/summary [get]
func (h *handlers) getZoneSummary(c *gin.Context) {
	zoneID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	view, ok := parseView(c)
	if !ok {
		return
	}
	sum, err := h.svcs.Query.GetZoneSummary(c.Request.Context(), zoneID, view)
	if err != nil {
		respondErr(c, err)
		return
	}
	writeJSONWithETag(c, http.StatusOK, sum, cacheRevalidate)
}

// @Summary  Slot occupancy at the current instant
// @Tags     zones
// @Param    id  path  int  true  "Zone ID"
// @Success  200  {array}  query.SlotStatus
// @Failure  404  {object}  ErrorResponse
// @Router   /zones/{id}/slots [get]
func (h *handlers) getSlotStatuses(c *gin.Context) {
	zoneID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	statuses, err := h.svcs.Query.GetSlotStatuses(c.Request.Context(), zoneID)
	if err != nil {
		respondErr(c, err)
		return
	}
	writeJSONWithETag(c, http.StatusOK, statuses, cacheRevalidate)
}
