// Package api is the request/response client the dashboard pages use to
// reach the cargo services. Mock serves fixed demo payloads; HTTP talks to
// the cargo API. The implementation is chosen once at startup.
package api

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Client is implemented by Mock and HTTP.
type Client interface {
	Placement(ctx context.Context, req PlacementRequest) (*Placement, error)
	Search(ctx context.Context, q SearchQuery) ([]Item, error)
	IdentifyWaste(ctx context.Context) (*WasteReport, error)
	SimulateDay(ctx context.Context, userID string) (*SimulationResult, error)
	ImportItems(ctx context.Context, filename string, r io.Reader) (*ImportResult, error)
	ExportItems(ctx context.Context) ([]Item, error)
	Logs(ctx context.Context, q LogQuery) ([]LogEntry, error)
	Occupancy(ctx context.Context) (*Occupancy, error)
	StorageEfficiency(ctx context.Context) (*Efficiency, error)
}

// Error is a failure reported by the cargo service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("cargo api: %d %s", e.Status, e.Message)
}

type tokenKey struct{}

// WithToken attaches a bearer token to calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// Action types recorded in the activity log.
const (
	ActionPlacement     = "placement"
	ActionRetrieval     = "retrieval"
	ActionRearrangement = "rearrangement"
	ActionDisposal      = "disposal"
	ActionSimulation    = "simulation"
	ActionImport        = "import"
)

type PlacementRequest struct {
	ItemID          string  `json:"itemId"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	MassKg          float64 `json:"massKg"`
	Priority        int     `json:"priority"`
	PreferredModule string  `json:"preferredModule,omitempty"`
	UserID          string  `json:"userId,omitempty"`
}

type Location struct {
	Module     string `json:"module"`
	Section    string `json:"section"`
	Location   string `json:"location"`
	Confidence int    `json:"confidence"`
}

// Path renders the location as Module/Section/Location.
func (l Location) Path() string {
	return l.Module + "/" + l.Section + "/" + l.Location
}

type Placement struct {
	Location
	Alternatives []Location `json:"alternatives"`
	Reasoning    []string   `json:"reasoning,omitempty"`
}

type SearchQuery struct {
	ItemID   string
	ItemName string
	UserID   string
}

// Item is one cargo item as exchanged with the cargo service.
type Item struct {
	ItemID      string  `json:"itemId"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Module      string  `json:"module"`
	Section     string  `json:"section"`
	Location    string  `json:"location"`
	MassKg      float64 `json:"massKg"`
	Priority    int     `json:"priority"`
	ExpiryDate  string  `json:"expiryDate,omitempty"`
	UsageLimit  int     `json:"usageLimit,omitempty"`
	Uses        int     `json:"uses,omitempty"`
	IsWaste     bool    `json:"isWaste,omitempty"`
	WasteReason string  `json:"wasteReason,omitempty"`
}

// Position is the Module/Section/Location path of the item.
func (i Item) Position() string {
	return i.Module + "/" + i.Section + "/" + i.Location
}

type WasteCategory struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Trend  string  `json:"trend"`
}

type WasteReport struct {
	Categories []WasteCategory `json:"categories"`
	Total      float64         `json:"total"`
	NextPickup string          `json:"nextPickup"`
}

type SimulationResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Day      string `json:"day,omitempty"`
	Expired  int    `json:"expired"`
	Depleted int    `json:"depleted"`
}

type ImportResult struct {
	Success        bool     `json:"success"`
	ItemsProcessed int      `json:"itemsProcessed"`
	ItemsAdded     int      `json:"itemsAdded"`
	ItemsUpdated   int      `json:"itemsUpdated"`
	Errors         int      `json:"errors"`
	Warnings       []string `json:"warnings"`
}

type LogQuery struct {
	Start      time.Time
	End        time.Time
	ItemID     string
	UserID     string
	ActionType string
}

type LogEntry struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     string    `json:"userId"`
	ActionType string    `json:"actionType"`
	ItemID     string    `json:"itemId,omitempty"`
	ItemName   string    `json:"itemName,omitempty"`
	Location   string    `json:"location,omitempty"`
	Details    string    `json:"details,omitempty"`
}

type ModuleOccupancy struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	Occupancy int    `json:"occupancy"`
	Warning   bool   `json:"warning"`
}

type OverallOccupancy struct {
	Occupancy  int `json:"occupancy"`
	Efficiency int `json:"efficiency"`
	Warnings   int `json:"warnings"`
}

type Occupancy struct {
	Modules []ModuleOccupancy `json:"modules"`
	Overall OverallOccupancy  `json:"overall"`
}

type ModuleEfficiency struct {
	Name       string `json:"name"`
	Efficiency int    `json:"efficiency"`
}

type Efficiency struct {
	Overall     int                `json:"overall"`
	ByModule    []ModuleEfficiency `json:"byModule"`
	Suggestions []string           `json:"suggestions"`
}
