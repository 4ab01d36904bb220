package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/repository"
)

type ZoneRepo struct {
	db DB
}

var _ repository.ZoneRepo = (*ZoneRepo)(nil)

type zoneRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Boundary  string `db:"boundary"`
	Capacity  int    `db:"capacity"`
	Active    bool   `db:"active"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r zoneRow) toDomain() (domain.Zone, error) {
	z := domain.Zone{
		ID:        r.ID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		Active:    r.Active,
		CreatedAt: fromNanos(r.CreatedAt),
		UpdatedAt: fromNanos(r.UpdatedAt),
	}
	if err := json.Unmarshal([]byte(r.Boundary), &z.Boundary); err != nil {
		return z, fmt.Errorf("decode boundary: %w", err)
	}
	return z, nil
}

type slotRow struct {
	ZoneID   int64  `db:"zone_id"`
	ID       string `db:"id"`
	Position int    `db:"position"`
	Tag      string `db:"tag"`
	Geometry string `db:"geometry"`
}

func (r slotRow) toDomain() (domain.Slot, error) {
	s := domain.Slot{ZoneID: r.ZoneID, ID: r.ID, Position: r.Position, Tag: r.Tag}
	if err := json.Unmarshal([]byte(r.Geometry), &s.Geometry); err != nil {
		return s, fmt.Errorf("decode geometry: %w", err)
	}
	return s, nil
}

const zoneColumns = `id, name, boundary, capacity, active, created_at, updated_at`

func (r *ZoneRepo) Create(ctx context.Context, z domain.Zone) (int64, error) {
	const op = "sqlite.ZoneRepo.Create"

	boundary, err := json.Marshal(z.Boundary)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	now := toNanos(time.Now())
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO zones(name, boundary, capacity, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		z.Name, string(boundary), z.Capacity, z.Active, now, now,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *ZoneRepo) Update(ctx context.Context, z domain.Zone) error {
	const op = "sqlite.ZoneRepo.Update"

	boundary, err := json.Marshal(z.Boundary)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE zones
		 SET name = ?, boundary = ?, capacity = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		z.Name, string(boundary), z.Capacity, z.Active, toNanos(time.Now()), z.ID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *ZoneRepo) Get(ctx context.Context, id int64) (*domain.Zone, error) {
	const op = "sqlite.ZoneRepo.Get"

	var row zoneRow
	if err := r.db.GetContext(ctx, &row,
		`SELECT `+zoneColumns+` FROM zones WHERE id = ?`, id); err != nil {
		return nil, wrapDBErr(op, err)
	}

	z, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &z, nil
}

// Lock is a plain read: the enclosing IMMEDIATE transaction already holds
// the database write lock.
func (r *ZoneRepo) Lock(ctx context.Context, id int64) (*domain.Zone, error) {
	return r.Get(ctx, id)
}

func (r *ZoneRepo) List(ctx context.Context) ([]domain.Zone, error) {
	const op = "sqlite.ZoneRepo.List"

	var rows []zoneRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+zoneColumns+` FROM zones ORDER BY id`); err != nil {
		return nil, wrapDBErr(op, err)
	}

	out := make([]domain.Zone, 0, len(rows))
	for _, row := range rows {
		z, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, z)
	}

	return out, nil
}

func (r *ZoneRepo) ListSlots(ctx context.Context, zoneID int64) ([]domain.Slot, error) {
	const op = "sqlite.ZoneRepo.ListSlots"

	var rows []slotRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT zone_id, id, position, tag, geometry
		 FROM slots
		 WHERE zone_id = ?
		 ORDER BY position, id`,
		zoneID,
	); err != nil {
		return nil, wrapDBErr(op, err)
	}

	out := make([]domain.Slot, 0, len(rows))
	for _, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, s)
	}

	return out, nil
}

func (r *ZoneRepo) GetSlot(ctx context.Context, zoneID int64, slotID string) (*domain.Slot, error) {
	const op = "sqlite.ZoneRepo.GetSlot"

	var row slotRow
	if err := r.db.GetContext(ctx, &row,
		`SELECT zone_id, id, position, tag, geometry
		 FROM slots
		 WHERE zone_id = ? AND id = ?`,
		zoneID, slotID,
	); err != nil {
		return nil, wrapDBErr(op, err)
	}

	s, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &s, nil
}

func (r *ZoneRepo) UpsertSlots(ctx context.Context, zoneID int64, slots []domain.Slot) error {
	const op = "sqlite.ZoneRepo.UpsertSlots"

	for _, s := range slots {
		geom, err := json.Marshal(s.Geometry)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO slots(zone_id, id, position, tag, geometry)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (zone_id, id) DO UPDATE
			 SET position = excluded.position, tag = excluded.tag, geometry = excluded.geometry`,
			zoneID, s.ID, s.Position, s.Tag, string(geom),
		); err != nil {
			return wrapDBErr(op, err)
		}
	}

	return nil
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
