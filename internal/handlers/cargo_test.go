package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/internal/station"
	"github.com/loganlanou/stationcargo/storage"
	"github.com/loganlanou/stationcargo/storage/db"
)

func setupCargo(t *testing.T) (*CargoHandler, *storage.Storage) {
	t.Helper()
	store, cleanup := NewTestStorage()
	t.Cleanup(cleanup)

	layout, err := station.Default()
	require.NoError(t, err)

	return NewCargoHandler(store, layout, 0), store
}

func seedItem(t *testing.T, queries *db.Queries, item api.Item) {
	t.Helper()
	require.NoError(t, queries.UpsertCargoItem(context.Background(), upsertParams(item)))
}

func recentLogs(t *testing.T, queries *db.Queries, action string) []db.ActivityLog {
	t.Helper()
	now := time.Now()
	logs, err := queries.ListActivityLogs(context.Background(), db.ListActivityLogsParams{
		Start:      db.FormatTime(now.Add(-time.Hour)),
		End:        db.FormatTime(now.Add(time.Hour)),
		ActionType: action,
	})
	require.NoError(t, err)
	return logs
}

func TestPlacement(t *testing.T) {
	h, store := setupCargo(t)

	c, rec := NewTestContext(http.MethodPost, "/api/placement", map[string]any{"itemId": "ISS-1"})
	require.NoError(t, h.Placement(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, recentLogs(t, store.Queries, api.ActionPlacement), "anonymous placements are not logged")

	c, rec = NewTestContext(http.MethodPost, "/api/placement", map[string]any{
		"name":   "Medical Kit",
		"massKg": 2.5,
		"userId": "crew-1",
	})
	require.NoError(t, h.Placement(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var p api.Placement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Columbus/C4/Shelf-3", p.Path())
	assert.Len(t, p.Alternatives, 2)
	assert.Len(t, p.Reasoning, 3)

	logs := recentLogs(t, store.Queries, api.ActionPlacement)
	require.Len(t, logs, 1)
	assert.Equal(t, "crew-1", logs[0].UserID)
	assert.Equal(t, "Medical Kit", logs[0].ItemName)
	assert.Equal(t, "Columbus/C4/Shelf-3", logs[0].Location)
}

func TestPlacement_RequiresItem(t *testing.T) {
	h, _ := setupCargo(t)

	c, rec := NewTestContext(http.MethodPost, "/api/placement", map[string]any{"massKg": 1})
	require.NoError(t, h.Placement(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Item name is required")
}

func TestSearch(t *testing.T) {
	h, store := setupCargo(t)
	seedItem(t, store.Queries, api.Item{ItemID: "ISS-1", Name: "Water Filter Kit", Module: "Destiny", Section: "B7", Location: "Cabinet-4", MassKg: 3})
	seedItem(t, store.Queries, api.Item{ItemID: "ISS-2", Name: "Protein Bar Box", Module: "Unity", Section: "A3", Location: "Shelf-2", MassKg: 1})

	tests := []struct {
		name    string
		path    string
		wantIDs []string
	}{
		{name: "name fragment ignores case", path: "/api/search?itemName=filter", wantIDs: []string{"ISS-1"}},
		{name: "exact id", path: "/api/search?itemId=ISS-2", wantIDs: []string{"ISS-2"}},
		{name: "id and name must both match", path: "/api/search?itemId=ISS-2&itemName=filter", wantIDs: []string{}},
		{name: "no hits", path: "/api/search?itemName=wrench", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := NewTestContext(http.MethodGet, tt.path, nil)
			require.NoError(t, h.Search(c))
			require.Equal(t, http.StatusOK, rec.Code)

			var items []api.Item
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
			ids := []string{}
			for _, it := range items {
				ids = append(ids, it.ItemID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSearch_RequiresTerm(t *testing.T) {
	h, _ := setupCargo(t)

	c, rec := NewTestContext(http.MethodGet, "/api/search?userId=crew-1", nil)
	require.NoError(t, h.Search(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, err := AssertJSONResponse(rec)
	require.NoError(t, err)
	assert.Equal(t, "Either itemId or itemName must be provided", body["error"])
}

func TestSearch_RecordsRetrievals(t *testing.T) {
	h, store := setupCargo(t)
	seedItem(t, store.Queries, api.Item{ItemID: "ISS-1", Name: "Water Filter Kit", Module: "Destiny", Section: "B7", UsageLimit: 5})

	c, rec := NewTestContext(http.MethodGet, "/api/search?itemName=water&userId=crew-7", nil)
	require.NoError(t, h.Search(c))
	require.Equal(t, http.StatusOK, rec.Code)

	logs := recentLogs(t, store.Queries, api.ActionRetrieval)
	require.Len(t, logs, 1)
	assert.Equal(t, "crew-7", logs[0].UserID)
	assert.Equal(t, "Destiny/B7", logs[0].Location)

	item, err := store.Queries.GetCargoItem(context.Background(), "ISS-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.Uses)
}

func TestImportItems_Rejects(t *testing.T) {
	h, _ := setupCargo(t)

	tests := []struct {
		name       string
		field      string
		filename   string
		content    string
		wantStatus int
		wantError  string
	}{
		{name: "no file", wantStatus: http.StatusBadRequest, wantError: "No file part"},
		{name: "not csv", field: "file", filename: "cargo.xlsx", content: "x", wantStatus: http.StatusBadRequest, wantError: "File must be CSV format"},
		{name: "missing columns", field: "file", filename: "cargo.csv", content: "name,module\nKit,Unity\n", wantStatus: http.StatusBadRequest, wantError: "item_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := NewUploadContext("/api/import/items", tt.field, tt.filename, []byte(tt.content))
			require.NoError(t, h.ImportItems(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantError)
		})
	}
}

func TestImportItems_TooLarge(t *testing.T) {
	_, store := setupCargo(t)
	layout, err := station.Default()
	require.NoError(t, err)
	h := NewCargoHandler(store, layout, 8)

	c, rec := NewUploadContext("/api/import/items", "file", "cargo.csv", []byte("item_id,name,module\nISS-1,Kit,Unity\n"))
	require.NoError(t, h.ImportItems(c))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestImportItems_UpsertsAndCounts(t *testing.T) {
	h, store := setupCargo(t)
	seedItem(t, store.Queries, api.Item{ItemID: "ISS-2", Name: "Old Name", Module: "Unity"})

	csvBody := strings.Join([]string{
		"item_id,name,category,module,section,location,mass_kg,priority,expiry_date,usage_limit",
		"ISS-1,Medical Kit,Medical,Columbus,C4,Shelf-3,2.5,90,2030-01-01,",
		"ISS-2,Protein Bar Box,Food,Unity,A3,Shelf-2,0.8,50,,",
		"ISS-3,,Tools,Destiny,B1,Drawer-1,1,10,,",
		"ISS-4,Star Tracker,Equipment,Mir,M1,Bay-1,4,60,,",
	}, "\n")

	c, rec := NewUploadContext("/api/import/items", "file", "Cargo.CSV", []byte(csvBody))
	SetTestUser(c, "crew-3")
	require.NoError(t, h.ImportItems(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var res api.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 4, res.ItemsProcessed)
	assert.Equal(t, 2, res.ItemsAdded)
	assert.Equal(t, 1, res.ItemsUpdated)
	assert.Equal(t, 1, res.Errors)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "line 4")
	assert.Contains(t, res.Warnings[1], `unknown module "Mir"`)

	updated, err := store.Queries.GetCargoItem(context.Background(), "ISS-2")
	require.NoError(t, err)
	assert.Equal(t, "Protein Bar Box", updated.Name)
	assert.Equal(t, "Food", updated.Category)

	kit, err := store.Queries.GetCargoItem(context.Background(), "ISS-1")
	require.NoError(t, err)
	assert.Equal(t, sql.NullString{String: "2030-01-01", Valid: true}, kit.ExpiryDate)

	logs := recentLogs(t, store.Queries, api.ActionImport)
	require.Len(t, logs, 1)
	assert.Equal(t, "crew-3", logs[0].UserID)
	assert.Contains(t, logs[0].Details, "Cargo.CSV")
}

func TestExportItems(t *testing.T) {
	h, store := setupCargo(t)
	seedItem(t, store.Queries, api.Item{ItemID: "ISS-1", Name: "Medical Kit", Category: "Medical", Module: "Columbus", Section: "C4", Location: "Shelf-3", MassKg: 2.5, Priority: 90, ExpiryDate: "2030-01-01"})
	seedItem(t, store.Queries, api.Item{ItemID: "ISS-2", Name: "Wipes, wet", Category: "Hygiene", Module: "Unity", MassKg: 0.2, Priority: 5, UsageLimit: 40})

	c, rec := NewTestContext(http.MethodGet, "/api/export/items", nil)
	require.NoError(t, h.ExportItems(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cargo-items-")

	items, rowErrs, err := api.ReadItemsCSV(rec.Body)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, items, 2)
	assert.Equal(t, "Medical Kit", items[0].Name)
	assert.Equal(t, "2030-01-01", items[0].ExpiryDate)
	assert.Equal(t, "Wipes, wet", items[1].Name)
	assert.Equal(t, 40, items[1].UsageLimit)
}
