package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/internal/auth"
	"github.com/loganlanou/stationcargo/internal/guard"
	"github.com/loganlanou/stationcargo/internal/handlers"
	"github.com/loganlanou/stationcargo/internal/identity"
	"github.com/loganlanou/stationcargo/internal/jobs"
	"github.com/loganlanou/stationcargo/internal/kv"
	"github.com/loganlanou/stationcargo/internal/live"
	"github.com/loganlanou/stationcargo/internal/middleware"
	"github.com/loganlanou/stationcargo/internal/shell"
	"github.com/loganlanou/stationcargo/internal/station"
	"github.com/loganlanou/stationcargo/storage"
)

type Service struct {
	storage *storage.Storage
	config  *Config
	layout  *station.Layout

	auth    *auth.Service
	cargo   api.Client
	devices *shell.Devices
	shells  *shell.Registry
	hub     *live.Hub
	redis   *redis.Client

	shellReaper   *jobs.ShellReaper
	wasteDetector *jobs.WasteDetector
	tokenJanitor  *jobs.TokenJanitor
}

func New(storage *storage.Storage, config *Config) (*Service, error) {
	layout, err := station.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load station layout: %w", err)
	}

	s := &Service{
		storage: storage,
		config:  config,
		layout:  layout,
		auth:    auth.NewService(storage.Queries, auth.NewTokens(config.JWT.Secret, config.JWT.TTL)),
		devices: shell.NewDevices(config.SessionSecret, config.Secure()),
	}

	var provider identity.Provider
	switch config.Auth.Backend {
	case BackendRemote:
		provider = identity.NewRemote(config.Auth.BaseURL, config.API.Timeout)
	default:
		provider = identity.NewMock(config.Auth.MockDelay)
	}

	switch config.API.Backend {
	case BackendMock:
		s.cargo = api.NewMock(config.API.MockDelay)
	default:
		s.cargo = api.NewHTTP(config.API.BaseURL, config.API.Timeout)
	}

	var slots kv.Store
	switch config.Slots.Backend {
	case SlotsRedis:
		s.redis = redis.NewClient(&redis.Options{Addr: config.Slots.RedisAddr})
		slots = kv.NewRedis(s.redis, config.Slots.RedisTTL)
	case SlotsMemory:
		slots = kv.NewMemory()
	default:
		slots = kv.NewSQLite(storage.Queries)
	}

	s.hub = live.NewHub(s.devices.Lookup, slog.Default())
	s.shells = shell.NewRegistry(shell.Config{
		Auth:      provider,
		Profiles:  provider,
		Slots:     slots,
		Navigator: s.hub.Navigator,
		Observer:  s.hub.Observer,
		Logger:    slog.Default(),
	})

	s.shellReaper = jobs.NewShellReaper(s.shells, s.hub, config.Shell.IdleTimeout)
	s.wasteDetector = jobs.NewWasteDetector(storage, config.Waste.SweepInterval)
	s.tokenJanitor = jobs.NewTokenJanitor(s.auth)

	slog.Info("service configured",
		"auth_backend", config.Auth.Backend,
		"api_backend", config.API.Backend,
		"slots_backend", config.Slots.Backend,
	)
	return s, nil
}

// Start runs the background jobs until Close.
func (s *Service) Start(ctx context.Context) {
	s.shellReaper.Start(ctx)
	s.wasteDetector.Start(ctx)
	s.tokenJanitor.Start(ctx)
}

// Close stops the background jobs and releases every shell and connection.
func (s *Service) Close() {
	s.shellReaper.Stop()
	s.wasteDetector.Stop()
	s.tokenJanitor.Stop()

	s.hub.Close()
	s.shells.Close()
	s.auth.Close()
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
}

// multipartOverhead is the room left for the form envelope around an upload.
const multipartOverhead = 64 << 10

// uploadLimit caps the request body of CSV import routes.
func (s *Service) uploadLimit() echo.MiddlewareFunc {
	return echomw.BodyLimit(fmt.Sprintf("%dB", s.config.Upload.MaxSize+multipartOverhead))
}

func (s *Service) RegisterRoutes(e *echo.Echo) {
	// Static files - no session
	e.Static("/public", "public")

	// Health check - no session
	e.GET("/health", s.handleHealth)

	s.registerAPI(e)

	// Live channel of the open pages of a device
	e.GET("/live", s.hub.Serve)

	// Every page gets the shell of its device
	app := e.Group("", shell.Middleware(s.devices, s.shells), middleware.LoadSession())
	app.POST("/profile/refresh", s.handleProfileRefresh)

	public := app.Group("", guard.Release(shell.ResolveGuard))
	public.GET("/landing", s.handleLanding)
	public.GET("/login", s.handleLoginPage)
	public.POST("/login", s.handleLogin)
	public.GET("/register", s.handleRegisterPage)
	public.POST("/register", s.handleRegister)
	public.POST("/logout", s.handleLogout)

	crew := app.Group("", guard.Protect(shell.ResolveGuard, s.handleLoading))
	crew.GET("/", s.handleDashboard)
	crew.GET("/dashboard", s.handleDashboard)
	crew.GET("/cargo", s.handleCargo)
	crew.POST("/cargo/placement", s.handlePlacement)
	crew.GET("/cargo/:id/label.png", s.handleLabel)
	crew.GET("/storage", s.handleStorage)
	crew.GET("/module/:moduleId", s.handleModule)
	crew.GET("/station/map.png", s.handleStationMap)
	crew.GET("/waste", s.handleWaste)
	crew.POST("/waste/simulate", s.handleSimulateDay)
	crew.GET("/logs", s.handleLogs)
	crew.GET("/import-export", s.handleImportExport)
	crew.POST("/import-export/import", s.handleImport, s.uploadLimit())
	crew.GET("/import-export/export.csv", s.handleExportCSV)
	crew.GET("/import-export/manifest.pdf", s.handleManifest)

	// Registered last: creating a group with middleware installs its own catch-all
	public.RouteNotFound("/*", s.handleNotFound)
}

func (s *Service) registerAPI(e *echo.Echo) {
	var writes []echo.MiddlewareFunc
	if s.config.API.RequireAuth {
		writes = append(writes, auth.RequireAuth())
	}

	cargoHandler := handlers.NewCargoHandler(s.storage, s.layout, s.config.Upload.MaxSize)
	wasteHandler := handlers.NewWasteHandler(s.storage, s.config.Waste.NextPickup)
	logsHandler := handlers.NewLogsHandler(s.storage)
	stationHandler := handlers.NewStationHandler(s.storage, s.layout)
	authHandler := handlers.NewAuthAPIHandler(s.auth)

	g := e.Group("/api", auth.BearerAuth(s.auth))

	g.POST("/placement", cargoHandler.Placement, writes...)
	g.GET("/search", cargoHandler.Search)
	g.POST("/import/items", cargoHandler.ImportItems, append([]echo.MiddlewareFunc{s.uploadLimit()}, writes...)...)
	g.GET("/export/items", cargoHandler.ExportItems)

	g.GET("/waste/identify", wasteHandler.IdentifyWaste)
	g.POST("/simulate/day", wasteHandler.SimulateDay, writes...)

	g.GET("/logs", logsHandler.List)
	g.GET("/occupancy", stationHandler.Occupancy)
	g.GET("/storage/efficiency", stationHandler.StorageEfficiency)

	g.POST("/auth/login", authHandler.Login)
	g.POST("/auth/register", authHandler.Register)
	g.POST("/auth/logout", authHandler.Logout)
	g.GET("/profiles/:id", authHandler.Profile)
	g.PUT("/profiles/me", authHandler.UpdateProfile, auth.RequireAuth())
}

func (s *Service) handleHealth(c echo.Context) error {
	database := "connected"
	status := http.StatusOK
	if err := s.storage.DB().PingContext(c.Request().Context()); err != nil {
		slog.Error("health check failed", "error", err)
		database = "unavailable"
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]any{
		"status":      http.StatusText(status),
		"environment": s.config.Environment,
		"database":    database,
		"shells":      s.shells.Len(),
	})
}

// Render renders a templ component and writes it to the response
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	// Don't call WriteHeader here - let Echo handle it on first Write()
	return component.Render(c.Request().Context(), c.Response())
}

// RenderStatus renders a component with a non-200 status.
func RenderStatus(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response())
}
