package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists records in the projects table created by migrations/.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	selectColumns = `SELECT payload, file_ref, watch_url, channel_post_id, created_at FROM projects`

	insertProject = `INSERT INTO projects (payload, file_ref, watch_url, channel_post_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payload) DO NOTHING`
)

func (s *PostgresStore) Get(ctx context.Context, payload string) (Record, error) {
	var r Record
	err := s.db.GetContext(ctx, &r, selectColumns+` WHERE payload = $1`, payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("projects: get %q: %w", payload, err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	var list []Record
	if err := s.db.SelectContext(ctx, &list, selectColumns+` ORDER BY created_at DESC, payload ASC`); err != nil {
		return nil, fmt.Errorf("projects: list: %w", err)
	}
	return list, nil
}

// Insert relies on the primary key: the conflicting insert affects no rows.
func (s *PostgresStore) Insert(ctx context.Context, r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, insertProject, r.Payload, r.FileRef, r.WatchURL, r.ChannelPostID, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("projects: insert %q: %w", r.Payload, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("projects: insert %q: %w", r.Payload, err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}
