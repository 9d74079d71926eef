package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/internal/station"
	"github.com/loganlanou/stationcargo/storage"
)

type StationHandler struct {
	store  *storage.Storage
	layout *station.Layout
}

func NewStationHandler(store *storage.Storage, layout *station.Layout) *StationHandler {
	return &StationHandler{store: store, layout: layout}
}

func (h *StationHandler) Occupancy(c echo.Context) error {
	loads, err := h.store.Queries.ListModuleLoads(c.Request().Context())
	if err != nil {
		return internalError(c, "Failed to compute occupancy", err)
	}
	return c.JSON(http.StatusOK, h.layout.Occupancy(loads))
}

func (h *StationHandler) StorageEfficiency(c echo.Context) error {
	loads, err := h.store.Queries.ListModuleLoads(c.Request().Context())
	if err != nil {
		return internalError(c, "Failed to compute storage efficiency", err)
	}
	return c.JSON(http.StatusOK, h.layout.Efficiency(loads))
}
