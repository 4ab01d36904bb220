package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/repository"
)

type ReservationRepo struct {
	db DB
}

var _ repository.ReservationRepo = (*ReservationRepo)(nil)

type reservationRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	ZoneID      int64          `db:"zone_id"`
	SlotID      sql.NullString `db:"slot_id"`
	WindowStart int64          `db:"window_start"`
	WindowEnd   int64          `db:"window_end"`
	Status      string         `db:"status"`
	ActivatedAt sql.NullInt64  `db:"activated_at"`
	CreatedAt   int64          `db:"created_at"`
	UpdatedAt   int64          `db:"updated_at"`
}

func (r reservationRow) toDomain() (domain.Reservation, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("parse id %q: %w", r.ID, err)
	}
	res := domain.Reservation{
		ID:     id,
		UserID: r.UserID,
		ZoneID: r.ZoneID,
		Window: domain.Window{
			Start: fromNanos(r.WindowStart),
			End:   fromNanos(r.WindowEnd),
		},
		Status:    domain.Status(r.Status),
		CreatedAt: fromNanos(r.CreatedAt),
		UpdatedAt: fromNanos(r.UpdatedAt),
	}
	if r.SlotID.Valid {
		s := r.SlotID.String
		res.SlotID = &s
	}
	if r.ActivatedAt.Valid {
		t := fromNanos(r.ActivatedAt.Int64)
		res.ActivatedAt = &t
	}
	return res, nil
}

type holdRow struct {
	reservationRow
	ZoneName string `db:"zone_name"`
	SlotTag  string `db:"slot_tag"`
}

const reservationColumns = `id, user_id, zone_id, slot_id, window_start, window_end,
	status, activated_at, created_at, updated_at`

const liveStatuses = `('pending', 'active')`

func (r *ReservationRepo) Insert(ctx context.Context, res domain.Reservation) error {
	const op = "sqlite.ReservationRepo.Insert"

	var slotID sql.NullString
	if res.SlotID != nil {
		slotID = sql.NullString{String: *res.SlotID, Valid: true}
	}
	var activatedAt sql.NullInt64
	if res.ActivatedAt != nil {
		activatedAt = sql.NullInt64{Int64: toNanos(*res.ActivatedAt), Valid: true}
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO reservations(id, user_id, zone_id, slot_id, window_start, window_end,
			status, activated_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID.String(), res.UserID, res.ZoneID, slotID,
		toNanos(res.Window.Start), toNanos(res.Window.End),
		string(res.Status), activatedAt, toNanos(res.CreatedAt), toNanos(res.UpdatedAt),
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *ReservationRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	const op = "sqlite.ReservationRepo.Get"

	return r.getOne(ctx, op,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id.String())
}

func (r *ReservationRepo) FindLive(ctx context.Context, userID string, zoneID int64) (*domain.Reservation, error) {
	const op = "sqlite.ReservationRepo.FindLive"

	return r.getOne(ctx, op,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE user_id = ? AND zone_id = ? AND status IN `+liveStatuses,
		userID, zoneID)
}

func (r *ReservationRepo) ListLive(ctx context.Context, zoneID int64, view domain.Window) ([]domain.Reservation, error) {
	const op = "sqlite.ReservationRepo.ListLive"

	return r.selectMany(ctx, op,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE zone_id = ?
		   AND status IN `+liveStatuses+`
		   AND window_start < ?
		   AND window_end > ?
		 ORDER BY window_start, id`,
		zoneID, toNanos(view.End), toNanos(view.Start))
}

func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]domain.HoldView, error) {
	const op = "sqlite.ReservationRepo.ListByUser"

	var rows []holdRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT r.id, r.user_id, r.zone_id, r.slot_id, r.window_start, r.window_end,
			r.status, r.activated_at, r.created_at, r.updated_at,
			z.name AS zone_name, COALESCE(s.tag, '') AS slot_tag
		 FROM reservations r
		 JOIN zones z ON z.id = r.zone_id
		 LEFT JOIN slots s ON s.zone_id = r.zone_id AND s.id = r.slot_id
		 WHERE r.user_id = ?
		 ORDER BY r.window_end DESC, r.id`,
		userID,
	); err != nil {
		return nil, wrapDBErr(op, err)
	}

	out := make([]domain.HoldView, 0, len(rows))
	for _, row := range rows {
		res, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, domain.HoldView{Reservation: res, ZoneName: row.ZoneName, SlotTag: row.SlotTag})
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
	const op = "sqlite.ReservationRepo.CompareAndSetStatus"

	var act sql.NullInt64
	if activatedAt != nil {
		act = sql.NullInt64{Int64: toNanos(*activatedAt), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations
		 SET status = ?, activated_at = COALESCE(?, activated_at), updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(to), act, toNanos(now), id.String(), string(from),
	)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return n == 1, nil
}

func (r *ReservationRepo) ListDueForExpiry(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]domain.Reservation, error) {
	const op = "sqlite.ReservationRepo.ListDueForExpiry"

	return r.selectMany(ctx, op,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE status IN `+liveStatuses+`
		   AND window_end < ?
		   AND id > ?
		 ORDER BY id
		 LIMIT ?`,
		toNanos(now), after.String(), limit)
}

func (r *ReservationRepo) ListDueForActivation(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]domain.Reservation, error) {
	const op = "sqlite.ReservationRepo.ListDueForActivation"

	n := toNanos(now)
	return r.selectMany(ctx, op,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE status = 'pending'
		   AND window_start <= ?
		   AND window_end > ?
		   AND id > ?
		 ORDER BY id
		 LIMIT ?`,
		n, n, after.String(), limit)
}

func (r *ReservationRepo) getOne(ctx context.Context, op, query string, args ...any) (*domain.Reservation, error) {
	var row reservationRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, wrapDBErr(op, err)
	}

	res, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &res, nil
}

func (r *ReservationRepo) selectMany(ctx context.Context, op, query string, args ...any) ([]domain.Reservation, error) {
	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapDBErr(op, err)
	}

	out := make([]domain.Reservation, 0, len(rows))
	for _, row := range rows {
		res, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, res)
	}

	return out, nil
}
