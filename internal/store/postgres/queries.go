package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/ankittk/osboard/internal/store"
	"github.com/ankittk/osboard/pkg/models"
	"github.com/jackc/pgx/v5"
)

func (s *Store) SaveFilters(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("filters key required")
	}
	_, err := s.Pool.Exec(ctx, `INSERT INTO filters(key, value, updated_at) VALUES($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, key, string(value), time.Now().Unix())
	return err
}

func (s *Store) LoadFilters(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := s.Pool.QueryRow(ctx, `SELECT value FROM filters WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (s *Store) RecordActivity(ctx context.Context, a models.Activity) error {
	a = store.Prepare(a)
	_, err := s.Pool.Exec(ctx, `INSERT INTO activity(id, at, action, os_id, date_key, outcome, detail) VALUES($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.At, a.Action, a.OrderID, a.Date, a.Outcome, a.Detail)
	return err
}

func (s *Store) ListActivity(ctx context.Context, q store.ActivityQuery) ([]models.Activity, error) {
	limit := store.Limit(q.Limit)
	var (
		rows pgx.Rows
		err  error
	)
	if q.OrderID != "" {
		rows, err = s.Pool.Query(ctx, `SELECT id, at, action, os_id, date_key, outcome, detail FROM activity WHERE os_id = $1 ORDER BY at DESC, seq DESC LIMIT $2`, q.OrderID, limit)
	} else {
		rows, err = s.Pool.Query(ctx, `SELECT id, at, action, os_id, date_key, outcome, detail FROM activity ORDER BY at DESC, seq DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Activity, 0, limit)
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.At, &a.Action, &a.OrderID, &a.Date, &a.Outcome, &a.Detail); err != nil {
			return nil, err
		}
		a.At = a.At.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
