package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresCartStore persists cart blobs in the cart_blobs table.
type PostgresCartStore struct {
	db *sql.DB
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db}
}

func (s *PostgresCartStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT blob FROM cart_blobs WHERE session_id = $1",
		sessionID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return blob, err
}

func (s *PostgresCartStore) Save(ctx context.Context, sessionID string, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_blobs (session_id, blob, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET blob = EXCLUDED.blob, updated_at = EXCLUDED.updated_at`,
		sessionID, string(blob), time.Now().UTC(),
	)
	return err
}

// DeleteIdle removes carts not written since before cutoff.
func (s *PostgresCartStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cart_blobs WHERE updated_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
