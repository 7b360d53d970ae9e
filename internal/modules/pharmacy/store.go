// README: Pharmacy directory store backed by PostgreSQL.
package pharmacy

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Towns lists the towns that have at least one pharmacy on record.
func (s *Store) Towns(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT pueblo FROM pharmacies ORDER BY pueblo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var towns []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		towns = append(towns, t)
	}
	return towns, rows.Err()
}

// ByTown returns the pharmacies for a town, case-insensitively.
func (s *Store) ByTown(ctx context.Context, pueblo string) ([]Pharmacy, error) {
	rows, err := s.db.Query(ctx, `
		SELECT name, maps_link FROM pharmacies
		WHERE lower(pueblo) = lower($1)
		ORDER BY name`, pueblo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pharmacy
	for rows.Next() {
		var p Pharmacy
		if err := rows.Scan(&p.Name, &p.MapsLink); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert inserts or refreshes a directory row; used by the importer.
func (s *Store) Upsert(ctx context.Context, name, pueblo, mapsLink string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pharmacies (name, pueblo, maps_link)
		VALUES ($1, $2, $3)
		ON CONFLICT (name, pueblo)
		DO UPDATE SET maps_link = EXCLUDED.maps_link`,
		name, pueblo, mapsLink)
	return err
}
