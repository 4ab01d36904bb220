package httpgin

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/park-go/internal/clock"
	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/geo"
	redisrepo "github.com/kirinyoku/park-go/internal/repository/redis"
	"github.com/kirinyoku/park-go/internal/service"
	"github.com/kirinyoku/park-go/internal/service/reservation"
)

type Options struct {
	// AdminToken enables the /admin group. Empty disables it.
	AdminToken string
	// Idempotency backs the Idempotency-Key header on hold creation. Nil
	// ignores the header.
	Idempotency *redisrepo.IdempotencyStore
	Fence       geo.Fence
	Clock       clock.Clock
}

type handlers struct {
	svcs  *service.Services
	idem  *redisrepo.IdempotencyStore
	fence geo.Fence
	clock clock.Clock
}

func NewRouter(
	svcs *service.Services,
	logger *slog.Logger,
	opts Options,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	h := &handlers{
		svcs:  svcs,
		idem:  opts.Idempotency,
		fence: opts.Fence,
		clock: opts.Clock,
	}
	if h.fence == nil {
		h.fence = geo.Default
	}
	if h.clock == nil {
		h.clock = clock.NewSystem()
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/zones", h.listZones)
	r.GET("/zones/:id", h.getZone)
	r.GET("/zones/:id/summary", h.getZoneSummary)
	r.GET("/zones/:id/slots", h.getSlotStatuses)

	r.POST("/zones/:id/holds", h.createHold)
	r.POST("/zones/:id/arrivals", h.arrive)

	r.GET("/holds/:id", h.getHold)
	r.DELETE("/holds/:id", h.cancelHold)
	r.DELETE("/holds/del/:id", h.cancelHold)
	r.POST("/holds/:id/check-in", h.checkIn)
	r.POST("/holds/:id/complete", h.completeHold)

	r.GET("/users/:user_id/holds", h.listHolds)

	// Admin API
	if opts.AdminToken != "" {
		admin := r.Group("/admin", AdminAuth(opts.AdminToken))
		{
			admin.POST("/zones", h.createZone)
			admin.PATCH("/zones/:id", h.updateZone)
			admin.PUT("/zones/:id/slots", h.putSlots)
			admin.DELETE("/holds/:id", h.adminCancelHold)
		}
	}

	return r
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

// parseView reads the optional from/to query pair. Both or neither must be set.
func parseView(c *gin.Context) (*domain.Window, bool) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		return nil, true
	}
	if from == "" || to == "" {
		badRequest(c, "from and to must be given together")
		return nil, false
	}

	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		badRequest(c, "invalid from (RFC3339)")
		return nil, false
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		badRequest(c, "invalid to (RFC3339)")
		return nil, false
	}

	return &domain.Window{Start: start, End: end}, true
}

func requester(c *gin.Context) reservation.Requester {
	return reservation.Requester{UserID: strings.TrimSpace(c.GetHeader("X-User-ID"))}
}
