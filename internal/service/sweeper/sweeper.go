// Package sweeper drives time-based reservation transitions on a schedule.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/park-go/internal/clock"
	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/repository"
)

type Mode string

const (
	// ModeConfirmed leaves pending holds alone until the user checks in.
	ModeConfirmed Mode = "confirmed"
	// ModeAuto activates pending holds once their window starts.
	ModeAuto Mode = "auto"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeConfirmed:
		return ModeConfirmed, nil
	case ModeAuto:
		return ModeAuto, nil
	}
	return "", fmt.Errorf("unknown check-in mode %q", s)
}

type Config struct {
	Interval time.Duration
	Batch    int
	Mode     Mode
	// LeaseTTL bounds how long one replica owns a run.
	LeaseTTL time.Duration
}

// Source pages reservations due for a time transition.
type Source interface {
	ListDueForExpiry(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]domain.Reservation, error)
	ListDueForActivation(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]domain.Reservation, error)
}

// Transitioner applies one transition atomically and idempotently.
type Transitioner interface {
	Expire(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	Activate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
}

// Lease elects the replica that sweeps. A nil Lease means always sweep.
type Lease interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

type Report struct {
	Expired   int `json:"expired"`
	Activated int `json:"activated"`
	// Skipped counts records that moved on concurrently.
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	// Standby is set when another replica held the lease.
	Standby bool `json:"standby"`
}

type Sweeper struct {
	source Source
	tr     Transitioner
	lease  Lease
	clock  clock.Clock
	logger *slog.Logger
	cfg    Config
}

func New(source Source, tr Transitioner, lease Lease, clk clock.Clock, logger *slog.Logger, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}

	if cfg.Batch <= 0 {
		cfg.Batch = 500
	}

	if cfg.Mode == "" {
		cfg.Mode = ModeConfirmed
	}

	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = cfg.Interval
	}

	if clk == nil {
		clk = clock.NewSystem()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		source: source,
		tr:     tr,
		lease:  lease,
		clock:  clk,
		logger: logger.With("component", "sweeper"),
		cfg:    cfg,
	}
}

// Run sweeps once right away and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("sweeper started", "interval", s.cfg.Interval, "mode", s.cfg.Mode)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	rep, err := s.SweepOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("sweep failed", "error", err)
		}
		return
	}

	if rep.Standby {
		s.logger.Debug("sweep skipped, lease held elsewhere")
		return
	}

	s.logger.Info("sweep done",
		"expired", rep.Expired,
		"activated", rep.Activated,
		"skipped", rep.Skipped,
		"failed", rep.Failed,
	)
}

// SweepOnce runs one pass. Per-record failures are logged and counted; only
// a failure to list or lease is returned.
func (s *Sweeper) SweepOnce(ctx context.Context) (Report, error) {
	const op = "sweeper.Sweeper.SweepOnce"

	var rep Report

	if s.lease != nil {
		ok, err := s.lease.Acquire(ctx, s.cfg.LeaseTTL)
		if err != nil {
			return rep, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			rep.Standby = true
			return rep, nil
		}
		defer func() {
			if err := s.lease.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("lease release failed", "error", err)
			}
		}()
	}

	now := s.clock.Now()

	err := s.each(ctx, now, s.source.ListDueForExpiry, func(r domain.Reservation) {
		_, err := s.tr.Expire(ctx, r.ID)
		s.count(&rep, &rep.Expired, r, "expire", err)
	})
	if err != nil {
		return rep, fmt.Errorf("%s: %w", op, err)
	}

	if s.cfg.Mode == ModeAuto {
		err := s.each(ctx, now, s.source.ListDueForActivation, func(r domain.Reservation) {
			_, err := s.tr.Activate(ctx, r.ID)
			s.count(&rep, &rep.Activated, r, "activate", err)
		})
		if err != nil {
			return rep, fmt.Errorf("%s: %w", op, err)
		}
	}

	return rep, nil
}

type pageFunc func(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]domain.Reservation, error)

// each walks every page with an id cursor, so a record that keeps failing
// is visited once per run.
func (s *Sweeper) each(ctx context.Context, now time.Time, page pageFunc, fn func(domain.Reservation)) error {
	after := uuid.Nil

	for {
		batch, err := page(ctx, now, after, s.cfg.Batch)
		if err != nil {
			return err
		}

		for _, r := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(r)
		}

		if len(batch) < s.cfg.Batch {
			return nil
		}
		after = batch[len(batch)-1].ID
	}
}

func (s *Sweeper) count(rep *Report, done *int, r domain.Reservation, action string, err error) {
	switch {
	case err == nil:
		*done++
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotFound):
		rep.Skipped++
		s.logger.Debug("reservation moved on before "+action,
			"reservation_id", r.ID, "reason", domain.Reason(err))
	default:
		rep.Failed++
		s.logger.Error("sweep "+action+" failed",
			"reservation_id", r.ID, "zone_id", r.ZoneID, "error", err)
	}
}

var _ Source = (repository.ReservationRepo)(nil)
