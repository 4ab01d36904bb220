package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/repository"
)

type ZoneRepo struct {
	pool *pgxpool.Pool
	db   DB
}

var _ repository.ZoneRepo = (*ZoneRepo)(nil)

func (r *ZoneRepo) With(db DB) *ZoneRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ZoneRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const zoneColumns = `id, name, boundary, capacity, active, created_at, updated_at`

// Create inserts a zone and returns its ID.
//
// Returns repository.ErrConflict when a zone with the same name exists.
func (r *ZoneRepo) Create(ctx context.Context, z domain.Zone) (int64, error) {
	const op = "postgres.ZoneRepo.Create"

	boundary, err := encodeGeometry(z.Boundary)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var id int64
	if err := r.handle().QueryRow(ctx,
		`INSERT INTO zones(name, boundary, capacity, active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		z.Name, boundary, z.Capacity, z.Active,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// Update overwrites the editable fields of a zone.
func (r *ZoneRepo) Update(ctx context.Context, z domain.Zone) error {
	const op = "postgres.ZoneRepo.Update"

	boundary, err := encodeGeometry(z.Boundary)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.handle().Exec(ctx,
		`UPDATE zones
		 SET name = $2, boundary = $3, capacity = $4, active = $5, updated_at = now()
		 WHERE id = $1`,
		z.ID, z.Name, boundary, z.Capacity, z.Active,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *ZoneRepo) Get(ctx context.Context, id int64) (*domain.Zone, error) {
	const op = "postgres.ZoneRepo.Get"

	z, err := scanZone(r.handle().QueryRow(ctx,
		`SELECT `+zoneColumns+` FROM zones WHERE id = $1`, id))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return z, nil
}

// Lock reads the zone row FOR UPDATE so concurrent admissions to the same
// zone queue behind each other.
func (r *ZoneRepo) Lock(ctx context.Context, id int64) (*domain.Zone, error) {
	const op = "postgres.ZoneRepo.Lock"

	z, err := scanZone(r.handle().QueryRow(ctx,
		`SELECT `+zoneColumns+` FROM zones WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return z, nil
}

func (r *ZoneRepo) List(ctx context.Context) ([]domain.Zone, error) {
	const op = "postgres.ZoneRepo.List"

	rows, err := r.handle().Query(ctx,
		`SELECT `+zoneColumns+` FROM zones ORDER BY id`)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *z)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *ZoneRepo) ListSlots(ctx context.Context, zoneID int64) ([]domain.Slot, error) {
	const op = "postgres.ZoneRepo.ListSlots"

	rows, err := r.handle().Query(ctx,
		`SELECT zone_id, id, position, tag, geometry
		 FROM slots
		 WHERE zone_id = $1
		 ORDER BY position, id`,
		zoneID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *ZoneRepo) GetSlot(ctx context.Context, zoneID int64, slotID string) (*domain.Slot, error) {
	const op = "postgres.ZoneRepo.GetSlot"

	s, err := scanSlot(r.handle().QueryRow(ctx,
		`SELECT zone_id, id, position, tag, geometry
		 FROM slots
		 WHERE zone_id = $1 AND id = $2`,
		zoneID, slotID,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return s, nil
}

// UpsertSlots inserts new slots and refreshes tag, position and geometry of
// existing ones. Slots are never removed since reservations reference them.
func (r *ZoneRepo) UpsertSlots(ctx context.Context, zoneID int64, slots []domain.Slot) error {
	const op = "postgres.ZoneRepo.UpsertSlots"

	batch := &pgx.Batch{}
	for _, s := range slots {
		geom, err := encodeGeometry(s.Geometry)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		batch.Queue(
			`INSERT INTO slots(zone_id, id, position, tag, geometry)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (zone_id, id) DO UPDATE
			 SET position = EXCLUDED.position, tag = EXCLUDED.tag, geometry = EXCLUDED.geometry`,
			zoneID, s.ID, s.Position, s.Tag, geom,
		)
	}
	if err := r.handle().SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func scanZone(row pgx.Row) (*domain.Zone, error) {
	var (
		z        domain.Zone
		boundary []byte
	)
	if err := row.Scan(&z.ID, &z.Name, &boundary, &z.Capacity, &z.Active, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return nil, err
	}
	g, err := decodeGeometry(boundary)
	if err != nil {
		return nil, err
	}
	z.Boundary = g
	return &z, nil
}

func scanSlot(row pgx.Row) (*domain.Slot, error) {
	var (
		s    domain.Slot
		geom []byte
	)
	if err := row.Scan(&s.ZoneID, &s.ID, &s.Position, &s.Tag, &geom); err != nil {
		return nil, err
	}
	g, err := decodeGeometry(geom)
	if err != nil {
		return nil, err
	}
	s.Geometry = g
	return &s, nil
}
