package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/park-go/internal/repository"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

// RunTx runs fn in a serializable transaction. Serialization failures and
// unique violations come back as repository.ErrSerialization and
// repository.ErrConflict so callers can retry the whole unit.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return s.RunTxWithOpts(ctx, nil, fn)
}

func (s *Store) RunTxWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx repository.Tx) error,
) error {
	const op = "postgres.Store.RunTx"

	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
		txOpts.DeferrableMode = opts.DeferrableMode
	}

	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return wrapDBErr(op, err)
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, s.bind(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, translateDBErr(err))
	}

	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Zones() repository.ZoneRepo {
	return &ZoneRepo{pool: s.pool}
}

func (s *Store) Reservations() repository.ReservationRepo {
	return &ReservationRepo{pool: s.pool}
}

type txHandle struct {
	zones        *ZoneRepo
	reservations *ReservationRepo
}

func (t txHandle) Zones() repository.ZoneRepo               { return t.zones }
func (t txHandle) Reservations() repository.ReservationRepo { return t.reservations }

func (s *Store) bind(db DB) repository.Tx {
	return txHandle{
		zones:        (&ZoneRepo{pool: s.pool}).With(db),
		reservations: (&ReservationRepo{pool: s.pool}).With(db),
	}
}
