package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcastilla/go-booking-register.git/internal/storage"
)

type Store struct{ DB *pgxpool.Pool }

// EnsureSchema creates the document table on first run.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS booking_docs (
			collection TEXT  NOT NULL,
			id         TEXT  NOT NULL,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`)
	return err
}

func (s *Store) LoadAll(ctx context.Context, collection string) ([]storage.Record, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, doc FROM booking_docs WHERE collection=$1`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.Record
	for rows.Next() {
		var rec storage.Record
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Put(ctx context.Context, collection string, rec storage.Record) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO booking_docs(collection, id, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, collection, rec.ID, rec.Data)
	return err
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM booking_docs WHERE collection=$1 AND id=$2`, collection, id)
	return err
}
