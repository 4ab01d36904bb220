// Package sqlite is a single-node store backed by a SQLite file. Write
// transactions start with BEGIN IMMEDIATE, so admissions serialize on the
// database write lock.
package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kirinyoku/park-go/internal/repository"
)

type DB interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type Store struct {
	db *sqlx.DB
}

var _ repository.Store = (*Store)(nil)

type Config struct {
	Path        string
	BusyTimeout time.Duration
}

func Open(ctx context.Context, cfg Config) (*Store, error) {
	const op = "sqlite.Open"

	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	q := url.Values{}
	q.Set("_txlock", "immediate")
	q.Set("_busy_timeout", fmt.Sprint(cfg.BusyTimeout.Milliseconds()))
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")
	dsn := "file:" + cfg.Path + "?" + q.Encode()

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	const op = "sqlite.Store.RunTx"

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapDBErr(op, err)
	}

	defer tx.Rollback()

	if err := fn(ctx, bind(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, translateDBErr(err))
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Zones() repository.ZoneRepo {
	return &ZoneRepo{db: s.db}
}

func (s *Store) Reservations() repository.ReservationRepo {
	return &ReservationRepo{db: s.db}
}

type txHandle struct {
	zones        *ZoneRepo
	reservations *ReservationRepo
}

func (t txHandle) Zones() repository.ZoneRepo               { return t.zones }
func (t txHandle) Reservations() repository.ReservationRepo { return t.reservations }

func bind(db DB) repository.Tx {
	return txHandle{
		zones:        &ZoneRepo{db: db},
		reservations: &ReservationRepo{db: db},
	}
}
