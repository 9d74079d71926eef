package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/storage/db"
)

// jsonError writes the {"error": msg} body the cargo API answers with.
func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

func internalError(c echo.Context, msg string, err error) error {
	slog.Error(msg, "error", err, "path", c.Path())
	return jsonError(c, http.StatusInternalServerError, msg)
}

func toItem(i db.CargoItem) api.Item {
	return api.Item{
		ItemID:      i.ID,
		Name:        i.Name,
		Category:    i.Category,
		Module:      i.Module,
		Section:     i.Section,
		Location:    i.Location,
		MassKg:      i.MassKg,
		Priority:    int(i.Priority),
		ExpiryDate:  i.ExpiryDate.String,
		UsageLimit:  int(i.UsageLimit.Int64),
		Uses:        int(i.Uses),
		IsWaste:     i.IsWaste,
		WasteReason: i.WasteReason.String,
	}
}

func toItems(rows []db.CargoItem) []api.Item {
	items := make([]api.Item, len(rows))
	for i, r := range rows {
		items[i] = toItem(r)
	}
	return items
}

func upsertParams(i api.Item) db.UpsertCargoItemParams {
	category := i.Category
	if category == "" {
		category = "general"
	}
	return db.UpsertCargoItemParams{
		ID:         i.ItemID,
		Name:       i.Name,
		Category:   category,
		Module:     i.Module,
		Section:    i.Section,
		Location:   i.Location,
		MassKg:     i.MassKg,
		Priority:   int64(i.Priority),
		ExpiryDate: sql.NullString{String: i.ExpiryDate, Valid: i.ExpiryDate != ""},
		UsageLimit: sql.NullInt64{Int64: int64(i.UsageLimit), Valid: i.UsageLimit > 0},
	}
}

func toLogEntry(l db.ActivityLog) api.LogEntry {
	return api.LogEntry{
		ID:         l.ID,
		Timestamp:  db.ParseTime(l.CreatedAt),
		UserID:     l.UserID,
		ActionType: l.ActionType,
		ItemID:     l.ItemID,
		ItemName:   l.ItemName,
		Location:   l.Location,
		Details:    l.Details,
	}
}

// recordActivity appends to the activity log. Failures are logged and
// never fail the request that caused them.
func recordActivity(ctx context.Context, queries *db.Queries, entry db.CreateActivityLogParams) {
	if err := queries.CreateActivityLog(ctx, entry); err != nil {
		slog.Error("failed to record activity", "error", err, "action_type", entry.ActionType, "item_id", entry.ItemID)
	}
}
