package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/repository"
)

type ReservationRepo struct {
	pool *pgxpool.Pool
	db   DB
}

var _ repository.ReservationRepo = (*ReservationRepo)(nil)

func (r *ReservationRepo) With(db DB) *ReservationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ReservationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const reservationColumns = `id, user_id, zone_id, slot_id, window_start, window_end,
	status, activated_at, created_at, updated_at`

const liveStatuses = `('pending', 'active')`

// Insert stores a new reservation.
//
// Returns repository.ErrConflict when the user already has a live
// reservation in the zone.
func (r *ReservationRepo) Insert(ctx context.Context, res domain.Reservation) error {
	const op = "postgres.ReservationRepo.Insert"

	if _, err := r.handle().Exec(ctx,
		`INSERT INTO reservations(id, user_id, zone_id, slot_id, window_start, window_end,
			status, activated_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID, res.UserID, res.ZoneID, res.SlotID, res.Window.Start, res.Window.End,
		string(res.Status), res.ActivatedAt, res.CreatedAt, res.UpdatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *ReservationRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	const op = "postgres.ReservationRepo.Get"

	res, err := scanReservation(r.handle().QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return res, nil
}

func (r *ReservationRepo) FindLive(ctx context.Context, userID string, zoneID int64) (*domain.Reservation, error) {
	const op = "postgres.ReservationRepo.FindLive"

	res, err := scanReservation(r.handle().QueryRow(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE user_id = $1 AND zone_id = $2 AND status IN `+liveStatuses,
		userID, zoneID,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return res, nil
}

func (r *ReservationRepo) ListLive(ctx context.Context, zoneID int64, view domain.Window) ([]domain.Reservation, error) {
	const op = "postgres.ReservationRepo.ListLive"

	rows, err := r.handle().Query(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE zone_id = $1
		   AND status IN `+liveStatuses+`
		   AND window_start < $3
		   AND window_end > $2
		 ORDER BY window_start, id`,
		zoneID, view.Start, view.End,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out, err := collectReservations(rows)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]domain.HoldView, error) {
	const op = "postgres.ReservationRepo.ListByUser"

	rows, err := r.handle().Query(ctx,
		`SELECT r.id, r.user_id, r.zone_id, r.slot_id, r.window_start, r.window_end,
			r.status, r.activated_at, r.created_at, r.updated_at,
			z.name, COALESCE(s.tag, '')
		 FROM reservations r
		 JOIN zones z ON z.id = r.zone_id
		 LEFT JOIN slots s ON s.zone_id = r.zone_id AND s.id = r.slot_id
		 WHERE r.user_id = $1
		 ORDER BY r.window_end DESC, r.id`,
		userID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.HoldView
	for rows.Next() {
		var (
			v      domain.HoldView
			status string
		)
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.ZoneID, &v.SlotID, &v.Window.Start, &v.Window.End,
			&status, &v.ActivatedAt, &v.CreatedAt, &v.UpdatedAt,
			&v.ZoneName, &v.SlotTag,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		v.Status = domain.Status(status)
		normalize(&v.Reservation)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *ReservationRepo) CompareAndSetStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.Status,
	activatedAt *time.Time,
	now time.Time,
) (bool, error) {
	const op = "postgres.ReservationRepo.CompareAndSetStatus"

	tag, err := r.handle().Exec(ctx,
		`UPDATE reservations
		 SET status = $3,
		     activated_at = COALESCE($4, activated_at),
		     updated_at = $5
		 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), activatedAt, now,
	)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *ReservationRepo) ListDueForExpiry(
	ctx context.Context,
	now time.Time,
	after uuid.UUID,
	limit int,
) ([]domain.Reservation, error) {
	const op = "postgres.ReservationRepo.ListDueForExpiry"

	rows, err := r.handle().Query(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE status IN `+liveStatuses+`
		   AND window_end < $1
		   AND id > $2
		 ORDER BY id
		 LIMIT $3`,
		now, after, limit,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out, err := collectReservations(rows)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *ReservationRepo) ListDueForActivation(
	ctx context.Context,
	now time.Time,
	after uuid.UUID,
	limit int,
) ([]domain.Reservation, error) {
	const op = "postgres.ReservationRepo.ListDueForActivation"

	rows, err := r.handle().Query(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE status = 'pending'
		   AND window_start <= $1
		   AND window_end > $1
		   AND id > $2
		 ORDER BY id
		 LIMIT $3`,
		now, after, limit,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out, err := collectReservations(rows)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return out, nil
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var (
		res    domain.Reservation
		status string
	)
	if err := row.Scan(
		&res.ID, &res.UserID, &res.ZoneID, &res.SlotID, &res.Window.Start, &res.Window.End,
		&status, &res.ActivatedAt, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	res.Status = domain.Status(status)
	normalize(&res)
	return &res, nil
}

func normalize(res *domain.Reservation) {
	res.Window.Start = res.Window.Start.UTC()
	res.Window.End = res.Window.End.UTC()
	res.CreatedAt = res.CreatedAt.UTC()
	res.UpdatedAt = res.UpdatedAt.UTC()
	if res.ActivatedAt != nil {
		t := res.ActivatedAt.UTC()
		res.ActivatedAt = &t
	}
}
