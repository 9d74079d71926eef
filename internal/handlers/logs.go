package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/storage"
	"github.com/loganlanou/stationcargo/storage/db"
)

type LogsHandler struct {
	store *storage.Storage
}

func NewLogsHandler(store *storage.Storage) *LogsHandler {
	return &LogsHandler{store: store}
}

// List returns the activity log between startDate and endDate (RFC3339,
// inclusive), newest first.
func (h *LogsHandler) List(c echo.Context) error {
	startRaw, endRaw := c.QueryParam("startDate"), c.QueryParam("endDate")
	if startRaw == "" || endRaw == "" {
		return jsonError(c, http.StatusBadRequest, "Start and end dates are required")
	}
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "startDate must be an RFC3339 timestamp")
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "endDate must be an RFC3339 timestamp")
	}
	if end.Before(start) {
		return jsonError(c, http.StatusBadRequest, "endDate is before startDate")
	}

	rows, err := h.store.Queries.ListActivityLogs(c.Request().Context(), db.ListActivityLogsParams{
		Start:      db.FormatTime(start),
		End:        db.FormatTime(end),
		ItemID:     c.QueryParam("itemId"),
		UserID:     c.QueryParam("userId"),
		ActionType: c.QueryParam("actionType"),
	})
	if err != nil {
		return internalError(c, "Failed to load logs", err)
	}

	entries := make([]api.LogEntry, len(rows))
	for i, r := range rows {
		entries[i] = toLogEntry(r)
	}
	return c.JSON(http.StatusOK, entries)
}
