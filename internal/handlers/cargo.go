package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/internal/auth"
	"github.com/loganlanou/stationcargo/internal/station"
	"github.com/loganlanou/stationcargo/storage"
	"github.com/loganlanou/stationcargo/storage/db"
)

// DefaultMaxUpload caps CSV uploads when no limit is configured.
const DefaultMaxUpload = 10 << 20

type CargoHandler struct {
	store     *storage.Storage
	layout    *station.Layout
	maxUpload int64
}

func NewCargoHandler(store *storage.Storage, layout *station.Layout, maxUpload int64) *CargoHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &CargoHandler{store: store, layout: layout, maxUpload: maxUpload}
}

// actor is the user an action is recorded for: the explicit userId, else
// the bearer token subject.
func actor(c echo.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if id, ok := auth.GetUserID(c); ok {
		return id
	}
	return ""
}

// Placement answers with the fixed placement recommendation.
func (h *CargoHandler) Placement(c echo.Context) error {
	var req api.PlacementRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" && strings.TrimSpace(req.ItemID) == "" {
		return jsonError(c, http.StatusBadRequest, "Item name is required")
	}

	rec := api.DemoPlacement()

	if user := actor(c, req.UserID); user != "" {
		recordActivity(c.Request().Context(), h.store.Queries, db.CreateActivityLogParams{
			UserID:     user,
			ActionType: api.ActionPlacement,
			ItemID:     req.ItemID,
			ItemName:   req.Name,
			Location:   rec.Path(),
			Details:    fmt.Sprintf("Recommended with %d%% confidence", rec.Confidence),
		})
	}

	return c.JSON(http.StatusOK, rec)
}

// Search finds items by exact id and/or case-insensitive name fragment.
// When a user is known every hit is recorded as a retrieval and counts as
// one use of the item.
func (h *CargoHandler) Search(c echo.Context) error {
	itemID := strings.TrimSpace(c.QueryParam("itemId"))
	itemName := strings.TrimSpace(c.QueryParam("itemName"))
	if itemID == "" && itemName == "" {
		return jsonError(c, http.StatusBadRequest, "Either itemId or itemName must be provided")
	}

	ctx := c.Request().Context()
	rows, err := h.store.Queries.SearchCargoItems(ctx, db.SearchCargoItemsParams{ItemID: itemID, Name: itemName})
	if err != nil {
		return internalError(c, "Failed to search items", err)
	}

	if user := actor(c, c.QueryParam("userId")); user != "" {
		for _, r := range rows {
			recordActivity(ctx, h.store.Queries, db.CreateActivityLogParams{
				UserID:     user,
				ActionType: api.ActionRetrieval,
				ItemID:     r.ID,
				ItemName:   r.Name,
				Location:   r.Module + "/" + r.Section,
			})
			if err := h.store.Queries.MarkCargoItemUsed(ctx, r.ID); err != nil {
				slog.Error("failed to count item use", "error", err, "item_id", r.ID)
			}
		}
	}

	return c.JSON(http.StatusOK, toItems(rows))
}

// ImportItems upserts the rows of an uploaded CSV file.
func (h *CargoHandler) ImportItems(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "No file part")
	}
	if fh.Filename == "" {
		return jsonError(c, http.StatusBadRequest, "No selected file")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return jsonError(c, http.StatusBadRequest, "File must be CSV format")
	}
	if fh.Size > h.maxUpload {
		return jsonError(c, http.StatusRequestEntityTooLarge, "File is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return internalError(c, "Failed to read upload", err)
	}
	defer f.Close()

	items, rowErrs, err := api.ReadItemsCSV(f)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	result := api.ImportResult{
		Success:        true,
		ItemsProcessed: len(items) + len(rowErrs),
		Errors:         len(rowErrs),
		Warnings:       []string{},
	}
	for _, re := range rowErrs {
		result.Warnings = append(result.Warnings, re.Error())
	}

	ctx := c.Request().Context()
	tx, err := h.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return internalError(c, "Failed to import items", err)
	}
	defer tx.Rollback()
	qtx := h.store.Queries.WithTx(tx)

	for _, it := range items {
		if _, ok := h.layout.Module(it.Module); !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("item %s: unknown module %q", it.ItemID, it.Module))
		}
		exists, err := qtx.CargoItemExists(ctx, it.ItemID)
		if err != nil {
			return internalError(c, "Failed to import items", err)
		}
		if err := qtx.UpsertCargoItem(ctx, upsertParams(it)); err != nil {
			return internalError(c, "Failed to import items", err)
		}
		if exists {
			result.ItemsUpdated++
		} else {
			result.ItemsAdded++
		}
	}

	if err := tx.Commit(); err != nil {
		return internalError(c, "Failed to import items", err)
	}

	slog.Info("cargo imported",
		"file", fh.Filename,
		"processed", result.ItemsProcessed,
		"added", result.ItemsAdded,
		"updated", result.ItemsUpdated,
		"errors", result.Errors)

	if user := actor(c, c.FormValue("userId")); user != "" {
		recordActivity(ctx, h.store.Queries, db.CreateActivityLogParams{
			UserID:     user,
			ActionType: api.ActionImport,
			Details:    fmt.Sprintf("%s: %d added, %d updated, %d errors", fh.Filename, result.ItemsAdded, result.ItemsUpdated, result.Errors),
		})
	}

	return c.JSON(http.StatusOK, result)
}

// ExportItems streams every cargo item as CSV.
func (h *CargoHandler) ExportItems(c echo.Context) error {
	rows, err := h.store.Queries.ListCargoItems(c.Request().Context())
	if err != nil {
		return internalError(c, "Failed to export items", err)
	}

	filename := fmt.Sprintf("cargo-items-%s.csv", time.Now().UTC().Format(db.DayLayout))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)

	return api.WriteItemsCSV(c.Response(), toItems(rows))
}
