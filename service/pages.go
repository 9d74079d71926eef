package service

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/internal/manifest"
	"github.com/loganlanou/stationcargo/internal/middleware"
	"github.com/loganlanou/stationcargo/views/crew"
	"github.com/loganlanou/stationcargo/views/layout"
)

const recentActivityLimit = 10

// apiMessage turns a cargo client failure into a notice.
func apiMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "The cargo service is unavailable. Please try again."
}

func userID(c echo.Context) string {
	if u := middleware.GetUser(c); u != nil {
		return u.ID
	}
	return ""
}

func (s *Service) handleDashboard(c echo.Context) error {
	p := s.page(c, "Dashboard")
	d := crew.DashboardData{Layout: s.layout}

	now := time.Now()
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		d.Occupancy, err = s.cargo.Occupancy(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Efficiency, err = s.cargo.StorageEfficiency(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Waste, err = s.cargo.IdentifyWaste(ctx)
		return err
	})
	g.Go(func() error {
		entries, err := s.cargo.Logs(ctx, api.LogQuery{Start: now.Add(-7 * 24 * time.Hour), End: now})
		if err != nil {
			return err
		}
		if len(entries) > recentActivityLimit {
			entries = entries[:recentActivityLimit]
		}
		d.Recent = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("failed to load dashboard", "error", err)
		p = p.WithNotice(layout.NoticeError, apiMessage(err))
	}

	return Render(c, crew.Dashboard(p, d))
}

func (s *Service) handleCargo(c echo.Context) error {
	p := s.page(c, "Cargo")
	d := crew.CargoData{
		Modules: s.layout.Names(),
		Query: api.SearchQuery{
			ItemID:   strings.TrimSpace(c.QueryParam("itemId")),
			ItemName: strings.TrimSpace(c.QueryParam("itemName")),
			UserID:   userID(c),
		},
	}

	if d.Query.ItemID != "" || d.Query.ItemName != "" {
		d.Searched = true
		items, err := s.cargo.Search(c.Request().Context(), d.Query)
		if err != nil {
			slog.Error("cargo search failed", "error", err)
			p = p.WithNotice(layout.NoticeError, apiMessage(err))
		}
		d.Results = items
	}

	return Render(c, crew.Cargo(p, d))
}

func (s *Service) handlePlacement(c echo.Context) error {
	p := s.page(c, "Cargo")
	req := api.PlacementRequest{
		ItemID:          strings.TrimSpace(c.FormValue("itemId")),
		Name:            strings.TrimSpace(c.FormValue("name")),
		Category:        strings.TrimSpace(c.FormValue("category")),
		PreferredModule: c.FormValue("preferredModule"),
		UserID:          userID(c),
	}
	d := crew.CargoData{Modules: s.layout.Names(), Form: req}

	if v := c.FormValue("massKg"); v != "" {
		mass, err := strconv.ParseFloat(v, 64)
		if err != nil || !api.ValidMass(mass) {
			return RenderStatus(c, http.StatusBadRequest, crew.Cargo(p.WithNotice(layout.NoticeError, "Mass must be a positive number."), d))
		}
		req.MassKg = mass
	}
	if v := c.FormValue("priority"); v != "" {
		prio, err := strconv.Atoi(v)
		if err != nil || prio < 0 || prio > 100 {
			return RenderStatus(c, http.StatusBadRequest, crew.Cargo(p.WithNotice(layout.NoticeError, "Priority must be between 0 and 100."), d))
		}
		req.Priority = prio
	}
	d.Form = req

	if req.Name == "" && req.ItemID == "" {
		return RenderStatus(c, http.StatusBadRequest, crew.Cargo(p.WithNotice(layout.NoticeError, "Item name is required."), d))
	}

	placement, err := s.cargo.Placement(c.Request().Context(), req)
	if err != nil {
		slog.Error("placement failed", "error", err)
		return Render(c, crew.Cargo(p.WithNotice(layout.NoticeError, apiMessage(err)), d))
	}
	d.Placement = placement
	return Render(c, crew.Cargo(p, d))
}

func (s *Service) handleLabel(c echo.Context) error {
	id := c.Param("id")
	items, err := s.cargo.Search(c.Request().Context(), api.SearchQuery{ItemID: id})
	if err != nil {
		slog.Error("label lookup failed", "item_id", id, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, apiMessage(err))
	}
	for _, it := range items {
		if !strings.EqualFold(it.ItemID, id) {
			continue
		}
		var buf bytes.Buffer
		if err := manifest.WriteLabel(&buf, it, s.config.BaseURL); err != nil {
			slog.Error("failed to render label", "item_id", id, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to render label")
		}
		return c.Blob(http.StatusOK, "image/png", buf.Bytes())
	}
	return echo.NewHTTPError(http.StatusNotFound, "Item not found")
}

func (s *Service) handleStorage(c echo.Context) error {
	p := s.page(c, "Storage")
	d := crew.StorageData{Layout: s.layout}

	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		d.Occupancy, err = s.cargo.Occupancy(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Efficiency, err = s.cargo.StorageEfficiency(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("failed to load storage", "error", err)
		p = p.WithNotice(layout.NoticeError, apiMessage(err))
	}

	return Render(c, crew.Storage(p, d))
}

func (s *Service) handleModule(c echo.Context) error {
	m, ok := s.layout.Module(c.Param("moduleId"))
	if !ok {
		return s.handleNotFound(c)
	}
	p := s.page(c, m.Name)
	d := crew.ModuleData{Module: m, Occupancy: api.ModuleOccupancy{Name: m.Name, ID: m.ID}}

	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		occ, err := s.cargo.Occupancy(ctx)
		if err != nil {
			return err
		}
		for _, mo := range occ.Modules {
			if strings.EqualFold(mo.ID, m.ID) || strings.EqualFold(mo.Name, m.Name) {
				d.Occupancy = mo
				break
			}
		}
		return nil
	})
	g.Go(func() error {
		items, err := s.cargo.ExportItems(ctx)
		if err != nil {
			return err
		}
		for _, it := range items {
			if strings.EqualFold(it.Module, m.Name) && !it.IsWaste {
				d.Items = append(d.Items, it)
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("failed to load module", "module", m.ID, "error", err)
		p = p.WithNotice(layout.NoticeError, apiMessage(err))
	}
	d.Level = s.layout.Level(d.Occupancy.Occupancy)

	return Render(c, crew.Module(p, d))
}

func (s *Service) handleStationMap(c echo.Context) error {
	occ, err := s.cargo.Occupancy(c.Request().Context())
	if err != nil {
		slog.Warn("rendering station map without occupancy", "error", err)
	}
	var buf bytes.Buffer
	if err := s.layout.RenderMap(&buf, occ); err != nil {
		slog.Error("failed to render station map", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render station map")
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Service) handleWaste(c echo.Context) error {
	p := s.page(c, "Waste")
	report, err := s.cargo.IdentifyWaste(c.Request().Context())
	if err != nil {
		slog.Error("failed to identify waste", "error", err)
		p = p.WithNotice(layout.NoticeError, apiMessage(err))
	}
	return Render(c, crew.Waste(p, crew.WasteData{Report: report}))
}

func (s *Service) handleSimulateDay(c echo.Context) error {
	p := s.page(c, "Waste")
	ctx := c.Request().Context()

	result, err := s.cargo.SimulateDay(ctx, userID(c))
	if err != nil {
		slog.Error("day simulation failed", "error", err)
		p = p.WithNotice(layout.NoticeError, apiMessage(err))
	} else {
		p = p.WithNotice(layout.NoticeSuccess, result.Message)
	}

	report, err := s.cargo.IdentifyWaste(ctx)
	if err != nil {
		slog.Error("failed to identify waste", "error", err)
	}
	return Render(c, crew.Waste(p, crew.WasteData{Report: report, Result: result}))
}

func (s *Service) handleLogs(c echo.Context) error {
	p := s.page(c, "Logs")
	today := time.Now().UTC().Format(time.DateOnly)
	f := crew.LogFilter{
		StartDate:  c.QueryParam("startDate"),
		EndDate:    c.QueryParam("endDate"),
		ItemID:     strings.TrimSpace(c.QueryParam("itemId")),
		UserID:     strings.TrimSpace(c.QueryParam("userId")),
		ActionType: c.QueryParam("actionType"),
	}
	if f.StartDate == "" {
		f.StartDate = time.Now().UTC().AddDate(0, 0, -7).Format(time.DateOnly)
	}
	if f.EndDate == "" {
		f.EndDate = today
	}

	q, problem := logQuery(f)
	if problem != "" {
		return RenderStatus(c, http.StatusBadRequest, crew.Logs(p.WithNotice(layout.NoticeError, problem), crew.LogsData{Filter: f}))
	}

	entries, err := s.cargo.Logs(c.Request().Context(), q)
	if err != nil {
		slog.Error("failed to load logs", "error", err)
		p = p.WithNotice(layout.NoticeError, apiMessage(err))
	}
	return Render(c, crew.Logs(p, crew.LogsData{Filter: f, Entries: entries}))
}

// logQuery converts the filter form, or reports what is wrong with it. The
// end date is inclusive.
func logQuery(f crew.LogFilter) (api.LogQuery, string) {
	start, err := time.Parse(time.DateOnly, f.StartDate)
	if err != nil {
		return api.LogQuery{}, "Start date must be a valid date."
	}
	end, err := time.Parse(time.DateOnly, f.EndDate)
	if err != nil {
		return api.LogQuery{}, "End date must be a valid date."
	}
	if end.Before(start) {
		return api.LogQuery{}, "End date is before start date."
	}
	return api.LogQuery{
		Start:      start,
		End:        end.Add(24*time.Hour - time.Second),
		ItemID:     f.ItemID,
		UserID:     f.UserID,
		ActionType: f.ActionType,
	}, ""
}

func (s *Service) handleImportExport(c echo.Context) error {
	return Render(c, crew.ImportExport(s.page(c, "Import / Export"), crew.ImportExportData{MaxUpload: s.config.Upload.MaxSize}))
}

func (s *Service) handleImport(c echo.Context) error {
	p := s.page(c, "Import / Export")
	d := crew.ImportExportData{MaxUpload: s.config.Upload.MaxSize}
	reject := func(msg string) error {
		return RenderStatus(c, http.StatusBadRequest, crew.ImportExport(p.WithNotice(layout.NoticeError, msg), d))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return reject("Choose a CSV file to import.")
	}
	if file.Filename == "" {
		return reject("No selected file.")
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".csv") {
		return reject("File must be CSV format.")
	}
	if file.Size > s.config.Upload.MaxSize {
		return reject(fmt.Sprintf("File is too large (limit %d MB).", s.config.Upload.MaxSize>>20))
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("failed to open upload", "error", err)
		return reject("The upload could not be read.")
	}
	defer src.Close()

	result, err := s.cargo.ImportItems(c.Request().Context(), file.Filename, src)
	if err != nil {
		slog.Error("import failed", "filename", file.Filename, "error", err)
		return Render(c, crew.ImportExport(p.WithNotice(layout.NoticeError, apiMessage(err)), d))
	}

	d.Result = result
	slog.Info("items imported", "filename", file.Filename, "processed", result.ItemsProcessed, "errors", result.Errors)
	return Render(c, crew.ImportExport(p.WithNotice(layout.NoticeSuccess,
		fmt.Sprintf("Imported %d items from %s.", result.ItemsProcessed, file.Filename)), d))
}

func (s *Service) handleExportCSV(c echo.Context) error {
	items, err := s.cargo.ExportItems(c.Request().Context())
	if err != nil {
		slog.Error("export failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, apiMessage(err))
	}

	filename := fmt.Sprintf("cargo-items-%s.csv", time.Now().UTC().Format(time.DateOnly))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)
	return api.WriteItemsCSV(c.Response(), items)
}

func (s *Service) handleManifest(c echo.Context) error {
	ctx := c.Request().Context()
	doc := manifest.Document{
		GeneratedAt: time.Now(),
		GeneratedBy: "crew",
		BaseURL:     s.config.BaseURL,
	}
	if u := middleware.GetUser(c); u != nil {
		doc.GeneratedBy = u.DisplayName()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		doc.Items, err = s.cargo.ExportItems(gctx)
		return err
	})
	g.Go(func() (err error) {
		doc.Occupancy, err = s.cargo.Occupancy(gctx)
		return err
	})
	g.Go(func() error {
		day, err := s.storage.Queries.GetStationDay(gctx)
		if err != nil {
			slog.Warn("station day unavailable for manifest", "error", err)
			return nil
		}
		doc.StationDay = day
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("failed to collect manifest", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, apiMessage(err))
	}

	var mapPNG bytes.Buffer
	if err := s.layout.RenderMap(&mapPNG, doc.Occupancy); err != nil {
		slog.Warn("manifest without station map", "error", err)
	} else {
		doc.MapPNG = mapPNG.Bytes()
	}

	var buf bytes.Buffer
	if err := manifest.WritePDF(&buf, doc); err != nil {
		slog.Error("failed to render manifest", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render manifest")
	}

	filename := fmt.Sprintf("cargo-manifest-%s.pdf", time.Now().UTC().Format(time.DateOnly))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}
