package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/loganlanou/stationcargo/storage/db"
)

// SQLite keeps slots in the kv_slots table so they survive restarts.
type SQLite struct {
	queries *db.Queries
}

func NewSQLite(queries *db.Queries) *SQLite {
	return &SQLite{queries: queries}
}

func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	v, err := s.queries.GetSlot(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return v, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	if err := s.queries.UpsertSlot(ctx, db.UpsertSlotParams{Key: key, Value: value}); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if err := s.queries.DeleteSlot(ctx, key); err != nil {
		return fmt.Errorf("failed to delete slot %q: %w", key, err)
	}
	return nil
}
