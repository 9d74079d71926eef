package db

import "context"

const createActivityLog = `
INSERT INTO activity_logs (user_id, action_type, item_id, item_name, location, details, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateActivityLogParams struct {
	UserID     string
	ActionType string
	ItemID     string
	ItemName   string
	Location   string
	Details    string
	CreatedAt  string
}

func (q *Queries) CreateActivityLog(ctx context.Context, arg CreateActivityLogParams) error {
	createdAt := arg.CreatedAt
	if createdAt == "" {
		createdAt = now()
	}
	_, err := q.db.ExecContext(ctx, createActivityLog,
		arg.UserID,
		arg.ActionType,
		arg.ItemID,
		arg.ItemName,
		arg.Location,
		arg.Details,
		createdAt,
	)
	return err
}

const listActivityLogs = `
SELECT id, user_id, action_type, item_id, item_name, location, details, created_at
FROM activity_logs
WHERE created_at >= ? AND created_at <= ?
  AND (? = '' OR item_id = ?)
  AND (? = '' OR user_id = ?)
  AND (? = '' OR action_type = ?)
ORDER BY created_at DESC, id DESC
LIMIT 500
`

type ListActivityLogsParams struct {
	Start      string
	End        string
	ItemID     string
	UserID     string
	ActionType string
}

func (q *Queries) ListActivityLogs(ctx context.Context, arg ListActivityLogsParams) ([]ActivityLog, error) {
	rows, err := q.db.QueryContext(ctx, listActivityLogs,
		arg.Start,
		arg.End,
		arg.ItemID, arg.ItemID,
		arg.UserID, arg.UserID,
		arg.ActionType, arg.ActionType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ActivityLog
	for rows.Next() {
		var i ActivityLog
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.ActionType,
			&i.ItemID,
			&i.ItemName,
			&i.Location,
			&i.Details,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getStationDay = `SELECT day FROM station_clock WHERE id = 1`

func (q *Queries) GetStationDay(ctx context.Context) (string, error) {
	var day string
	err := q.db.QueryRowContext(ctx, getStationDay).Scan(&day)
	return day, err
}

const setStationDay = `UPDATE station_clock SET day = ? WHERE id = 1`

func (q *Queries) SetStationDay(ctx context.Context, day string) error {
	_, err := q.db.ExecContext(ctx, setStationDay, day)
	return err
}
