package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/park-go/internal/clock"
	"github.com/kirinyoku/park-go/internal/config"
	"github.com/kirinyoku/park-go/internal/postgres"
	"github.com/kirinyoku/park-go/internal/redis"
	"github.com/kirinyoku/park-go/internal/repository"
	postgresrepo "github.com/kirinyoku/park-go/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/park-go/internal/repository/redis"
	"github.com/kirinyoku/park-go/internal/repository/sqlite"
	"github.com/kirinyoku/park-go/internal/service"
	"github.com/kirinyoku/park-go/internal/service/query"
	"github.com/kirinyoku/park-go/internal/service/reservation"
	"github.com/kirinyoku/park-go/internal/service/sweeper"
	httpgin "github.com/kirinyoku/park-go/internal/transport/http/gin"
	"github.com/kirinyoku/park-go/migrations"
)

type App struct {
	cfg    *config.Config
	logger *slog.Logger

	store repository.Store
	pool  *pgxpool.Pool
	rdb   *goredis.Client

	services *service.Services
	pubsub   *redisrepo.ZonesPubSub
	idem     *redisrepo.IdempotencyStore
	clock    clock.Clock
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	a := &App{
		cfg:    cfg,
		logger: logger,
		clock:  clock.NewSystem(),
	}

	if err := a.openStore(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var deps service.Deps
	if cfg.Redis.Enabled() {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			ClientName: "park-go",
		})
		if err != nil {
			_ = a.store.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.rdb = rdb

		a.pubsub = redisrepo.NewZonesPubSub(rdb)
		a.idem = redisrepo.NewIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL)
		deps = service.Deps{
			Cache:   redisrepo.New(rdb),
			PubSub:  a.pubsub,
			Limiter: redisrepo.NewSlidingWindowLimiter(rdb, "rl:hold", cfg.Booking.RateLimitPerMinute, time.Minute),
			Lease:   redisrepo.NewLease(rdb, redisrepo.KeySweepLease(), leaseHolder()),
		}
	} else {
		logger.Warn("redis disabled: no cache, rate limit, idempotency keys or sweep lease")
	}

	mode, err := sweeper.ParseMode(cfg.Sweeper.Mode)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.services = service.NewServices(a.store, deps, a.clock, logger, service.Config{
		Reservation: reservation.Config{
			ArrivalGrace:    cfg.Booking.ArrivalGrace,
			MaxHoldDuration: cfg.Booking.MaxHoldDuration,
			MaxAttempts:     cfg.Booking.MaxAttempts,
		},
		Query: query.Config{},
		Sweeper: sweeper.Config{
			Interval: cfg.Sweeper.Interval,
			Batch:    cfg.Sweeper.Batch,
			Mode:     mode,
		},
	})

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.cfg.Store.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, sqlite.Config{Path: a.cfg.Store.SQLitePath})
		if err != nil {
			return err
		}
		a.store = s
		a.logger.Info("using sqlite store", "path", a.cfg.Store.SQLitePath)
	default:
		pg := a.cfg.Postgres
		pool, err := postgres.New(ctx, postgres.Config{
			DSN:      postgres.DSN(pg.User, pg.Password, pg.Host, pg.Port, pg.Name, pg.SSLMode),
			MaxConns: pg.MaxConns,
		})
		if err != nil {
			return err
		}
		a.pool = pool
		a.store = postgresrepo.NewStore(pool)
		a.logger.Info("using postgres store", "host", pg.Host, "db", pg.Name)
	}
	return nil
}

func (a *App) Services() *service.Services { return a.services }

// PubSub is nil when redis is disabled.
func (a *App) PubSub() *redisrepo.ZonesPubSub { return a.pubsub }

// Migrate applies the embedded postgres migrations. The sqlite store
// creates its schema on open.
func (a *App) Migrate(ctx context.Context) ([]string, error) {
	if a.pool == nil {
		return nil, nil
	}
	return migrations.Apply(ctx, a.pool)
}

func (a *App) Close() error {
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

// Run serves HTTP and runs the expiry sweeper until ctx is cancelled or
// the process receives SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	router := httpgin.NewRouter(a.services, a.logger, httpgin.Options{
		AdminToken:  a.cfg.AdminToken,
		Idempotency: a.idem,
		Clock:       a.clock,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.services.Sweeper.Run(gCtx)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func leaseHolder() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "park-go"
	}
	return host + "-" + uuid.NewString()[:8]
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
