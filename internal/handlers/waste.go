package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/storage"
	"github.com/loganlanou/stationcargo/storage/db"
)

// DefaultPickupInterval is the time between waste return pickups.
const DefaultPickupInterval = 14 * 24 * time.Hour

type WasteHandler struct {
	store  *storage.Storage
	pickup time.Duration
}

func NewWasteHandler(store *storage.Storage, pickup time.Duration) *WasteHandler {
	if pickup <= 0 {
		pickup = DefaultPickupInterval
	}
	return &WasteHandler{store: store, pickup: pickup}
}

// IdentifyWaste groups the items flagged as waste by category. Until any
// waste has been recorded the demo breakdown is returned.
func (h *WasteHandler) IdentifyWaste(c echo.Context) error {
	ctx := c.Request().Context()

	cats, err := h.store.Queries.ListWasteCategories(ctx)
	if err != nil {
		return internalError(c, "Failed to identify waste", err)
	}
	if len(cats) == 0 {
		return c.JSON(http.StatusOK, api.DemoWasteReport())
	}

	report := api.WasteReport{Categories: make([]api.WasteCategory, 0, len(cats))}
	for _, wc := range cats {
		amount := math.Round(wc.MassKg*10) / 10
		report.Categories = append(report.Categories, api.WasteCategory{
			Type:   wc.Category,
			Amount: amount,
			Trend:  "stable",
		})
		report.Total += amount
	}
	report.Total = math.Round(report.Total*10) / 10

	pickup, err := h.nextPickup(ctx)
	if err != nil {
		return internalError(c, "Failed to identify waste", err)
	}
	report.NextPickup = pickup

	return c.JSON(http.StatusOK, report)
}

func (h *WasteHandler) nextPickup(ctx context.Context) (string, error) {
	day, err := stationDay(ctx, h.store.Queries)
	if err != nil {
		return "", err
	}
	return day.Add(h.pickup).Format(db.DayLayout), nil
}

func stationDay(ctx context.Context, queries *db.Queries) (time.Time, error) {
	raw, err := queries.GetStationDay(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read station day: %w", err)
	}
	day, err := time.Parse(db.DayLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("station day %q is not a date: %w", raw, err)
	}
	return day, nil
}

type simulateRequest struct {
	UserID string `json:"userId"`
}

// SimulateDay advances the station calendar by one day. Items whose expiry
// date has passed or whose usage limit is used up become waste.
func (h *WasteHandler) SimulateDay(c echo.Context) error {
	var req simulateRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx := c.Request().Context()
	tx, err := h.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return internalError(c, "Failed to simulate day", err)
	}
	defer tx.Rollback()
	qtx := h.store.Queries.WithTx(tx)

	day, err := stationDay(ctx, qtx)
	if err != nil {
		return internalError(c, "Failed to simulate day", err)
	}
	next := day.AddDate(0, 0, 1).Format(db.DayLayout)

	if err := qtx.SetStationDay(ctx, next); err != nil {
		return internalError(c, "Failed to simulate day", err)
	}
	expired, err := qtx.MarkExpiredAsWaste(ctx, next)
	if err != nil {
		return internalError(c, "Failed to simulate day", err)
	}
	depleted, err := qtx.MarkDepletedAsWaste(ctx)
	if err != nil {
		return internalError(c, "Failed to simulate day", err)
	}

	user := actor(c, req.UserID)
	if user == "" {
		user = "system"
	}
	if err := qtx.CreateActivityLog(ctx, db.CreateActivityLogParams{
		UserID:     user,
		ActionType: api.ActionSimulation,
		Details:    fmt.Sprintf("Day simulation to %s: %d expired, %d out of uses", next, expired, depleted),
	}); err != nil {
		return internalError(c, "Failed to simulate day", err)
	}

	if err := tx.Commit(); err != nil {
		return internalError(c, "Failed to simulate day", err)
	}

	slog.Info("station day simulated", "day", next, "expired", expired, "depleted", depleted)

	return c.JSON(http.StatusOK, api.SimulationResult{
		Success:  true,
		Message:  "Day simulation completed",
		Day:      next,
		Expired:  int(expired),
		Depleted: int(depleted),
	})
}
