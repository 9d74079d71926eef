package db

import (
	"context"
	"database/sql"
)

const cargoColumns = `id, name, category, module, section, location, mass_kg, priority, expiry_date, usage_limit, uses, is_waste, waste_reason, created_at, updated_at`

const cargoItemExists = `SELECT COUNT(*) FROM cargo_items WHERE id = ?`

func (q *Queries) CargoItemExists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, cargoItemExists, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

const upsertCargoItem = `
INSERT INTO cargo_items (id, name, category, module, section, location, mass_kg, priority, expiry_date, usage_limit, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    category = excluded.category,
    module = excluded.module,
    section = excluded.section,
    location = excluded.location,
    mass_kg = excluded.mass_kg,
    priority = excluded.priority,
    expiry_date = excluded.expiry_date,
    usage_limit = excluded.usage_limit,
    updated_at = excluded.updated_at
`

type UpsertCargoItemParams struct {
	ID         string
	Name       string
	Category   string
	Module     string
	Section    string
	Location   string
	MassKg     float64
	Priority   int64
	ExpiryDate sql.NullString
	UsageLimit sql.NullInt64
}

func (q *Queries) UpsertCargoItem(ctx context.Context, arg UpsertCargoItemParams) error {
	ts := now()
	_, err := q.db.ExecContext(ctx, upsertCargoItem,
		arg.ID,
		arg.Name,
		arg.Category,
		arg.Module,
		arg.Section,
		arg.Location,
		arg.MassKg,
		arg.Priority,
		arg.ExpiryDate,
		arg.UsageLimit,
		ts,
		ts,
	)
	return err
}

const getCargoItem = `SELECT ` + cargoColumns + ` FROM cargo_items WHERE id = ?`

func (q *Queries) GetCargoItem(ctx context.Context, id string) (CargoItem, error) {
	rows, err := q.db.QueryContext(ctx, getCargoItem, id)
	if err != nil {
		return CargoItem{}, err
	}
	items, err := scanCargoItems(rows)
	if err != nil {
		return CargoItem{}, err
	}
	if len(items) == 0 {
		return CargoItem{}, sql.ErrNoRows
	}
	return items[0], nil
}

const searchCargoItems = `
SELECT ` + cargoColumns + ` FROM cargo_items
WHERE (? = '' OR id = ?)
  AND (? = '' OR name LIKE '%' || ? || '%')
ORDER BY name
LIMIT 100
`

type SearchCargoItemsParams struct {
	ItemID string
	Name   string
}

func (q *Queries) SearchCargoItems(ctx context.Context, arg SearchCargoItemsParams) ([]CargoItem, error) {
	rows, err := q.db.QueryContext(ctx, searchCargoItems, arg.ItemID, arg.ItemID, arg.Name, arg.Name)
	if err != nil {
		return nil, err
	}
	return scanCargoItems(rows)
}

const listCargoItems = `SELECT ` + cargoColumns + ` FROM cargo_items ORDER BY module, section, id`

func (q *Queries) ListCargoItems(ctx context.Context) ([]CargoItem, error) {
	rows, err := q.db.QueryContext(ctx, listCargoItems)
	if err != nil {
		return nil, err
	}
	return scanCargoItems(rows)
}

const listCargoItemsByModule = `SELECT ` + cargoColumns + ` FROM cargo_items WHERE module = ? COLLATE NOCASE ORDER BY section, id`

func (q *Queries) ListCargoItemsByModule(ctx context.Context, module string) ([]CargoItem, error) {
	rows, err := q.db.QueryContext(ctx, listCargoItemsByModule, module)
	if err != nil {
		return nil, err
	}
	return scanCargoItems(rows)
}

const markUsed = `UPDATE cargo_items SET uses = uses + 1, updated_at = ? WHERE id = ?`

func (q *Queries) MarkCargoItemUsed(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markUsed, now(), id)
	return err
}

const markExpiredAsWaste = `
UPDATE cargo_items
SET is_waste = 1, waste_reason = 'expired', updated_at = ?
WHERE is_waste = 0 AND expiry_date IS NOT NULL AND expiry_date != '' AND expiry_date < ?
`

// MarkExpiredAsWaste flags items whose expiry date is before day.
func (q *Queries) MarkExpiredAsWaste(ctx context.Context, day string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markExpiredAsWaste, now(), day)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markDepletedAsWaste = `
UPDATE cargo_items
SET is_waste = 1, waste_reason = 'out of uses', updated_at = ?
WHERE is_waste = 0 AND usage_limit IS NOT NULL AND uses >= usage_limit
`

func (q *Queries) MarkDepletedAsWaste(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, markDepletedAsWaste, now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const moduleLoads = `
SELECT module, COUNT(*), COALESCE(SUM(mass_kg), 0)
FROM cargo_items
WHERE is_waste = 0
GROUP BY module
ORDER BY module
`

func (q *Queries) ListModuleLoads(ctx context.Context) ([]ModuleLoad, error) {
	rows, err := q.db.QueryContext(ctx, moduleLoads)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ModuleLoad
	for rows.Next() {
		var i ModuleLoad
		if err := rows.Scan(&i.Module, &i.ItemCount, &i.MassKg); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const wasteCategories = `
SELECT category, COUNT(*), COALESCE(SUM(mass_kg), 0)
FROM cargo_items
WHERE is_waste = 1
GROUP BY category
ORDER BY category
`

func (q *Queries) ListWasteCategories(ctx context.Context) ([]WasteCategory, error) {
	rows, err := q.db.QueryContext(ctx, wasteCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WasteCategory
	for rows.Next() {
		var i WasteCategory
		if err := rows.Scan(&i.Category, &i.ItemCount, &i.MassKg); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanCargoItems(rows *sql.Rows) ([]CargoItem, error) {
	defer rows.Close()
	var items []CargoItem
	for rows.Next() {
		var i CargoItem
		var isWaste int64
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Category,
			&i.Module,
			&i.Section,
			&i.Location,
			&i.MassKg,
			&i.Priority,
			&i.ExpiryDate,
			&i.UsageLimit,
			&i.Uses,
			&isWaste,
			&i.WasteReason,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		i.IsWaste = isWaste != 0
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
