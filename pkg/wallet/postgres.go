package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct{ DB *pgxpool.Pool }

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore { return &PostgresStore{DB: db} }

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `
CREATE TABLE IF NOT EXISTS wallet_identities (
  label TEXT PRIMARY KEY,
  content JSONB NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, label string) (Identity, error) {
	var content []byte
	err := s.DB.QueryRow(ctx, `SELECT content FROM wallet_identities WHERE label=$1`, label).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, fmt.Errorf("%w: %q", ErrNotFound, label)
		}
		return Identity{}, err
	}
	return decode(label, content)
}

func (s *PostgresStore) Put(ctx context.Context, id Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	b, err := encode(id)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
INSERT INTO wallet_identities(label,content) VALUES($1,$2)
ON CONFLICT (label) DO UPDATE SET content=EXCLUDED.content, updated_at=now()
`, id.Label, b)
	return err
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT label FROM wallet_identities ORDER BY label`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
