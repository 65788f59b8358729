package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ankittk/osboard/pkg/models"
)

func (s *sqliteStore) SaveFilters(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("filters key required")
	}
	_, err := s.stmtSaveFilters.ExecContext(ctx, key, string(value), nowFunc().Unix())
	return err
}

func (s *sqliteStore) LoadFilters(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := s.stmtLoadFilters.QueryRowContext(ctx, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (s *sqliteStore) RecordActivity(ctx context.Context, a models.Activity) error {
	a = Prepare(a)
	_, err := s.stmtInsertActivity.ExecContext(ctx, a.ID, a.At.UnixMilli(), a.Action, a.OrderID, a.Date, a.Outcome, a.Detail)
	return err
}

func (s *sqliteStore) ListActivity(ctx context.Context, q ActivityQuery) ([]models.Activity, error) {
	limit := Limit(q.Limit)
	var (
		rows *sql.Rows
		err  error
	)
	if q.OrderID != "" {
		rows, err = s.DB.QueryContext(ctx, `SELECT id, at, action, os_id, date_key, outcome, detail FROM activity WHERE os_id = ? ORDER BY at DESC, rowid DESC LIMIT ?`, q.OrderID, limit)
	} else {
		rows, err = s.DB.QueryContext(ctx, `SELECT id, at, action, os_id, date_key, outcome, detail FROM activity ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.Activity, 0, limit)
	for rows.Next() {
		var (
			a  models.Activity
			at int64
		)
		if err := rows.Scan(&a.ID, &at, &a.Action, &a.OrderID, &a.Date, &a.Outcome, &a.Detail); err != nil {
			return nil, err
		}
		a.At = time.UnixMilli(at).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
