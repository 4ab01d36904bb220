package httpgin

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kirinyoku/park-go/internal/domain"
	redisrepo "github.com/kirinyoku/park-go/internal/repository/redis"
	"github.com/kirinyoku/park-go/internal/service/reservation"
)

const idemLockTTL = 60 * time.Second

// @Summary  Request a hold (idempotent)
// @Description  Admits a pending hold for a future window, or an active one when arrival is set.
// @Tags     holds
// @Param    id   path  int  true  "Zone ID"
// @Param    Idempotency-Key  header  string  false  "client retry key"
// @Param    req  body  CreateHoldRequest  true  "payload"
// @Success  201  {object}  HoldResponse
// @Success  200  {object}  HoldResponse  "existing hold checked in"
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "duplicate hold / capacity exceeded / idempotency key in progress"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Router   /zones/{id}/holds [post]
func (h *handlers) createHold(c *gin.Context) {
	zoneID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	var req CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	var idemStorageKey string
	if h.idem != nil && idemKey != "" {
		idemStorageKey = redisrepo.KeyIdemHold(zoneID, req.UserID, idemKey)

		state, payload, err := h.idem.Begin(ctx, idemStorageKey, idemLockTTL)
		if err != nil {
			respondErr(c, err)
			return
		}

		switch state {
		case redisrepo.IdemReplay:
			replayHold(c, idemKey, payload)
			return
		case redisrepo.IdemInProgress:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{
				Error: "idempotency key in progress",
				Code:  "idempotency_in_progress",
			})
			return
		}
	}

	res, err := h.svcs.Reservation.RequestHold(ctx, reservation.HoldRequest{
		UserID:  req.UserID,
		ZoneID:  zoneID,
		SlotID:  req.SlotID,
		Window:  domain.Window{Start: req.WindowStart, End: req.WindowEnd},
		Arrival: req.Arrival,
	})
	if err != nil {
		if idemStorageKey != "" {
			_ = h.idem.Release(ctx, idemStorageKey)
		}
		respondErr(c, err)
		return
	}

	resp := toHoldResponse(res.Reservation, res.Converted)

	if idemStorageKey != "" {
		b, _ := json.Marshal(resp)
		_ = h.idem.SaveResult(ctx, idemStorageKey, string(b))
		c.Header("Idempotency-Key", idemKey)
	}

	c.JSON(holdStatus(resp), resp)
}

func replayHold(c *gin.Context, idemKey, payload string) {
	var resp HoldResponse
	status := http.StatusCreated
	if err := json.Unmarshal([]byte(payload), &resp); err == nil {
		status = holdStatus(resp)
	}
	c.Header("Idempotency-Key", idemKey)
	c.Data(status, "application/json; charset=utf-8", []byte(payload))
}

func holdStatus(resp HoldResponse) int {
	if resp.Converted {
		return http.StatusOK
	}
	return http.StatusCreated
}

// @Summary  Arrive at a zone
// @Description  Checks the position against the slot geometry (or zone boundary), then checks in the caller's hold or admits an active one starting now.
// @Tags     holds
// @Param    id   path  int  true  "Zone ID"
// @Param    req  body  ArrivalRequest  true  "payload"
// @Success  201  {object}  HoldResponse
// @Success  200  {object}  HoldResponse  "existing hold checked in"
// @Failure  400  {object}  ErrorResponse  "outside the geofence"
// @Failure  409  {object}  ErrorResponse
// @Router   /zones/{id}/arrivals [post]
func (h *handlers) arrive(c *gin.Context) {
	zoneID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	var req ArrivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	zone, err := h.svcs.Query.GetZone(ctx, zoneID)
	if err != nil {
		respondErr(c, err)
		return
	}

	fence, where := zone.Boundary, "zone "+zone.Name
	if req.SlotID != nil {
		slots, err := h.svcs.Query.ListSlots(ctx, zoneID)
		if err != nil {
			respondErr(c, err)
			return
		}
		slot := findSlot(slots, *req.SlotID)
		if slot == nil {
			respondErr(c, domain.Errorf(domain.ErrNotFound, "slot %q not found in zone %d", *req.SlotID, zoneID))
			return
		}
		if !slot.Geometry.IsZero() {
			fence, where = slot.Geometry, "slot "+slot.Tag
		}
	}

	pos := domain.Point{Lat: *req.Lat, Lng: *req.Lng}
	if !fence.IsZero() && !h.fence.Contains(fence, pos) {
		respondErr(c, domain.Errorf(domain.ErrValidation, "position (%g, %g) is outside %s", pos.Lat, pos.Lng, where))
		return
	}

	res, err := h.svcs.Reservation.RequestHold(ctx, reservation.HoldRequest{
		UserID:  req.UserID,
		ZoneID:  zoneID,
		SlotID:  req.SlotID,
		Window:  domain.Window{Start: h.clock.Now(), End: req.WindowEnd},
		Arrival: true,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	resp := toHoldResponse(res.Reservation, res.Converted)
	c.JSON(holdStatus(resp), resp)
}

func findSlot(slots []domain.Slot, id string) *domain.Slot {
	for i := range slots {
		if slots[i].ID == id {
			return &slots[i]
		}
	}
	return nil
}

// @Summary  Get a hold
// @Tags     holds
// @Param    id         path    string  true  "Reservation ID (uuid)"
// @Param    X-User-ID  header  string  true  "owner"
// @Success  200  {object}  domain.Reservation
// @Failure  403  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /holds/{id} [get]
func (h *handlers) getHold(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	r, err := h.svcs.Reservation.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if rq := requester(c); rq.UserID != r.UserID {
		respondErr(c, domain.Errorf(domain.ErrForbidden, "reservation %s belongs to another user", r.ID))
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary  Cancel a hold
// @Tags     holds
// @Param    id         path    string  true  "Reservation ID (uuid)"
// @Param    X-User-ID  header  string  true  "owner"
// @Success  200  {object}  domain.Reservation
// @Failure  403  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "invalid transition"
// @Router   /holds/{id} [delete]
func (h *handlers) cancelHold(c *gin.Context) {
	h.transition(c, h.svcs.Reservation.Cancel, requester(c))
}

// @Summary  Check in to a pending hold
// @Tags     holds
// @Param    id         path    string  true  "Reservation ID (uuid)"
// @Param    X-User-ID  header  string  true  "owner"
// @Success  200  {object}  domain.Reservation
// @Failure  409  {object}  ErrorResponse  "outside the window"
// @Router   /holds/{id}/check-in [post]
func (h *handlers) checkIn(c *gin.Context) {
	h.transition(c, h.svcs.Reservation.CheckIn, requester(c))
}

// @Summary  Check out of an active hold
// @Tags     holds
// @Param    id         path    string  true  "Reservation ID (uuid)"
// @Param    X-User-ID  header  string  true  "owner"
// @Success  200  {object}  domain.Reservation
// @Failure  409  {object}  ErrorResponse
// @Router   /holds/{id}/complete [post]
func (h *handlers) completeHold(c *gin.Context) {
	h.transition(c, h.svcs.Reservation.Complete, requester(c))
}

type transitionFunc func(ctx context.Context, id uuid.UUID, rq reservation.Requester) (*domain.Reservation, error)

func (h *handlers) transition(c *gin.Context, fn transitionFunc, rq reservation.Requester) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	r, err := fn(c.Request.Context(), id, rq)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary  List a user's holds
// @Description  All statuses, latest window end first.
// @Tags     holds
// @Param    user_id  path  string  true  "User ID"
// @Success  200  {array}  domain.HoldView
// @Router   /users/{user_id}/holds [get]
func (h *handlers) listHolds(c *gin.Context) {
	views, err := h.svcs.Reservation.ListHolds(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
