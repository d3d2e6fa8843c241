package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// HighwayPointRepo implements ports.HighwayPointRepository with PostGIS.
type HighwayPointRepo struct {
	db *DB
}

// NewHighwayPointRepo creates a new HighwayPointRepo.
func NewHighwayPointRepo(db *DB) *HighwayPointRepo {
	return &HighwayPointRepo{db: db}
}

// UpsertBatch loads curated points using pgx.Batch.
func (r *HighwayPointRepo) UpsertBatch(ctx context.Context, points []domain.HighwayPoint) error {
	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(`
			INSERT INTO highway_points (br, km, kind, description, direction, municipality, uf, location)
			VALUES ($1, $2, $3, $4, $5, $6, $7, ST_SetSRID(ST_MakePoint($8, $9), 4326)::geography)
			ON CONFLICT (br, km, kind) DO UPDATE
			SET description = EXCLUDED.description, location = EXCLUDED.location
		`, p.BR, p.Km, p.Kind, p.Description, nilIfEmpty(p.Direction),
			nilIfEmpty(p.Municipality), nilIfEmpty(p.UF), p.Location.Lon, p.Location.Lat)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range points {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// FindNearby returns points within radiusMeters using ST_DWithin, closest
// first.
func (r *HighwayPointRepo) FindNearby(ctx context.Context, p domain.GeoPoint, radiusMeters float64, limit int) ([]domain.HighwayPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, br, km, kind, description,
		       COALESCE(direction, ''), COALESCE(municipality, ''), COALESCE(uf, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
		FROM highway_points
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, p.Lon, p.Lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	return collectPoints(rows, true)
}

// ListByBR returns every point of a federal highway ordered by km.
func (r *HighwayPointRepo) ListByBR(ctx context.Context, br string) ([]domain.HighwayPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, br, km, kind, description,
		       COALESCE(direction, ''), COALESCE(municipality, ''), COALESCE(uf, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon
		FROM highway_points
		WHERE br = $1
		ORDER BY km
	`, br)
	if err != nil {
		return nil, err
	}
	return collectPoints(rows, false)
}

// Stats counts points per highway.
func (r *HighwayPointRepo) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT br, count(*) FROM highway_points GROUP BY br`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			br string
			n  int
		)
		if err := rows.Scan(&br, &n); err != nil {
			return nil, err
		}
		stats[br] = n
	}
	return stats, rows.Err()
}

func collectPoints(rows pgx.Rows, withDistance bool) ([]domain.HighwayPoint, error) {
	defer rows.Close()

	var points []domain.HighwayPoint
	for rows.Next() {
		var p domain.HighwayPoint
		dest := []any{
			&p.ID, &p.BR, &p.Km, &p.Kind, &p.Description,
			&p.Direction, &p.Municipality, &p.UF,
			&p.Location.Lat, &p.Location.Lon,
		}
		if withDistance {
			dest = append(dest, &p.Distance)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
