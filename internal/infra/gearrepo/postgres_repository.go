package gearrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/lightcast/internal/domain/planner"
)

// PostgresRepository implements planner.EquipmentStore using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ planner.EquipmentStore = (*PostgresRepository)(nil)

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (planner.Gear, error) {
	var g planner.Gear
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, focal_length_mm, max_aperture, min_aperture, min_iso, max_iso
		FROM equipment
		WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.Equipment.FocalLengthMM, &g.Equipment.MaxAperture,
		&g.Equipment.MinAperture, &g.Equipment.MinISO, &g.Equipment.MaxISO)
	if errors.Is(err, pgx.ErrNoRows) {
		return planner.Gear{}, planner.ErrNotFound
	}
	if err != nil {
		return planner.Gear{}, err
	}
	return g, nil
}

func (r *PostgresRepository) Save(ctx context.Context, g planner.Gear) (planner.Gear, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	e := g.Equipment
	_, err := r.pool.Exec(ctx, `
		INSERT INTO equipment (id, name, focal_length_mm, max_aperture, min_aperture, min_iso, max_iso)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    focal_length_mm = EXCLUDED.focal_length_mm,
		    max_aperture = EXCLUDED.max_aperture,
		    min_aperture = EXCLUDED.min_aperture,
		    min_iso = EXCLUDED.min_iso,
		    max_iso = EXCLUDED.max_iso
	`, g.ID, g.Name, e.FocalLengthMM, e.MaxAperture, e.MinAperture, e.MinISO, e.MaxISO)
	if err != nil {
		return planner.Gear{}, err
	}
	return g, nil
}
