package reservation

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirinyoku/park-go/internal/clock"
	"github.com/kirinyoku/park-go/internal/repository"
	"github.com/kirinyoku/park-go/internal/uow"
)

type Config struct {
	// ArrivalGrace bounds how far an arrival window start may sit from now.
	ArrivalGrace time.Duration
	// MaxHoldDuration caps the window length. Zero disables the cap.
	MaxHoldDuration time.Duration
	// MaxAttempts is how many times a transaction is run on storage conflicts.
	MaxAttempts int
}

// Notifier receives a hint after a zone's occupancy changed.
type Notifier interface {
	PublishZoneChanged(ctx context.Context, zoneID int64) error
}

// Limiter throttles hold requests per user.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, current int64, retryAfter time.Duration, err error)
}

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	notifier Notifier
	limiter  Limiter
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config
}

func New(
	store repository.Store,
	notifier Notifier,
	limiter Limiter,
	clk clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.ArrivalGrace <= 0 {
		cfg.ArrivalGrace = 3 * time.Minute
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	if clk == nil {
		clk = clock.NewSystem()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:    store,
		uow:      uow.NewUoW(store),
		notifier: notifier,
		limiter:  limiter,
		clock:    clk,
		logger:   logger,
		cfg:      cfg,
	}
}

func (s *Service) notify(ctx context.Context, zoneID int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishZoneChanged(ctx, zoneID); err != nil {
		s.logger.Warn("publish zone changed failed", "zone_id", zoneID, "error", err)
	}
}
