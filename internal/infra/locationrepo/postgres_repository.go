package locationrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/lightcast/internal/domain/lightpredict"
	"github.com/yanqian/lightcast/internal/domain/planner"
)

// PostgresRepository implements the location and calibration stores using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var (
	_ planner.LocationStore    = (*PostgresRepository)(nil)
	_ planner.CalibrationStore = (*PostgresRepository)(nil)
)

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get fetches a location by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (planner.Location, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, latitude, longitude, timezone
		FROM locations
		WHERE id = $1
	`, id)
	if err != nil {
		return planner.Location{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return planner.Location{}, err
		}
		return planner.Location{}, planner.ErrNotFound
	}
	l, err := scanLocation(rows)
	if err != nil {
		return planner.Location{}, err
	}
	return l, rows.Err()
}

// List returns every location ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]planner.Location, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, latitude, longitude, timezone
		FROM locations
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []planner.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Save upserts a location.
func (r *PostgresRepository) Save(ctx context.Context, l planner.Location) (planner.Location, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO locations (id, name, latitude, longitude, timezone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    timezone = EXCLUDED.timezone,
		    updated_at = NOW()
	`, l.ID, l.Name, l.Latitude, l.Longitude, l.TimeZone)
	if err != nil {
		return planner.Location{}, err
	}
	return l, nil
}

// LatestCalibration returns the newest reading for a location.
func (r *PostgresRepository) LatestCalibration(ctx context.Context, locationID string) (lightpredict.Calibration, bool, error) {
	var c lightpredict.Calibration
	err := r.pool.QueryRow(ctx, `
		SELECT measured_ev, predicted_ev, measured_at
		FROM calibration_readings
		WHERE location_id = $1
		ORDER BY measured_at DESC
		LIMIT 1
	`, locationID).Scan(&c.MeasuredEV, &c.PredictedEV, &c.MeasuredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return lightpredict.Calibration{}, false, nil
	}
	if err != nil {
		return lightpredict.Calibration{}, false, err
	}
	return c, true, nil
}

// SaveCalibration appends a reading.
func (r *PostgresRepository) SaveCalibration(ctx context.Context, locationID string, c lightpredict.Calibration) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO calibration_readings (location_id, measured_ev, predicted_ev, measured_at)
		VALUES ($1, $2, $3, $4)
	`, locationID, c.MeasuredEV, c.PredictedEV, c.MeasuredAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (planner.Location, error) {
	var l planner.Location
	if err := row.Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude, &l.TimeZone); err != nil {
		return planner.Location{}, err
	}
	return l, nil
}
