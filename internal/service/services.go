package service

import (
	"log/slog"

	"github.com/kirinyoku/park-go/internal/clock"
	"github.com/kirinyoku/park-go/internal/repository"
	redisrepo "github.com/kirinyoku/park-go/internal/repository/redis"
	"github.com/kirinyoku/park-go/internal/service/admin"
	"github.com/kirinyoku/park-go/internal/service/query"
	"github.com/kirinyoku/park-go/internal/service/reservation"
	"github.com/kirinyoku/park-go/internal/service/sweeper"
)

type Services struct {
	Reservation *reservation.Service
	Query       *query.Service
	Admin       *admin.Service
	Sweeper     *sweeper.Sweeper
}

type Config struct {
	Reservation reservation.Config
	Query       query.Config
	Sweeper     sweeper.Config
}

// Deps carries the optional redis-backed collaborators. Any of them may be
// nil when redis is not configured.
type Deps struct {
	Cache   *redisrepo.Cache
	PubSub  *redisrepo.ZonesPubSub
	Limiter *redisrepo.SlidingWindowLimiter
	Lease   *redisrepo.Lease
}

func NewServices(
	store repository.Store,
	deps Deps,
	clk clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Services {
	var limiter reservation.Limiter
	if deps.Limiter != nil {
		limiter = deps.Limiter
	}

	var lease sweeper.Lease
	if deps.Lease != nil {
		lease = deps.Lease
	}

	notifier := zoneNotifier(deps.PubSub)

	resv := reservation.New(store, notifier, limiter, clk, logger, cfg.Reservation)

	return &Services{
		Reservation: resv,
		Query:       query.New(store, deps.Cache, clk, cfg.Query),
		Admin:       admin.New(store, deps.Cache, notifier),
		Sweeper:     sweeper.New(store.Reservations(), resv, lease, clk, logger, cfg.Sweeper),
	}
}

// zoneNotifier keeps a missing pubsub a nil interface so that callers can
// skip publishing entirely.
func zoneNotifier(ps *redisrepo.ZonesPubSub) reservation.Notifier {
	if ps == nil {
		return nil
	}
	return ps
}
