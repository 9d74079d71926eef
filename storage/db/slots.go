package db

import "context"

const getSlot = `SELECT value FROM kv_slots WHERE key = ?`

func (q *Queries) GetSlot(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getSlot, key).Scan(&value)
	return value, err
}

const upsertSlot = `
INSERT INTO kv_slots (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

type UpsertSlotParams struct {
	Key   string
	Value string
}

func (q *Queries) UpsertSlot(ctx context.Context, arg UpsertSlotParams) error {
	_, err := q.db.ExecContext(ctx, upsertSlot, arg.Key, arg.Value, now())
	return err
}

const deleteSlot = `DELETE FROM kv_slots WHERE key = ?`

func (q *Queries) DeleteSlot(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteSlot, key)
	return err
}
