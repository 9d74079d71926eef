package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/internal/station"
	"github.com/loganlanou/stationcargo/storage/db"
)

func TestLogsList(t *testing.T) {
	store, cleanup := NewTestStorage()
	defer cleanup()
	h := NewLogsHandler(store)
	ctx := context.Background()

	base := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	entries := []db.CreateActivityLogParams{
		{UserID: "zhang", ActionType: api.ActionPlacement, ItemID: "ISS-42", ItemName: "Medical Kit #42", Location: "Columbus/B3", CreatedAt: db.FormatTime(base.Add(2 * time.Hour))},
		{UserID: "johnson", ActionType: api.ActionRetrieval, ItemID: "T-15", ItemName: "Tool Set T-15", Location: "Unity/A2", CreatedAt: db.FormatTime(base.Add(-time.Hour))},
		{UserID: "zhang", ActionType: api.ActionDisposal, ItemID: "ISS-42", CreatedAt: db.FormatTime(base.AddDate(0, 0, 10))},
	}
	for _, e := range entries {
		require.NoError(t, store.Queries.CreateActivityLog(ctx, e))
	}

	query := func(extra url.Values) []api.LogEntry {
		t.Helper()
		v := url.Values{}
		v.Set("startDate", "2025-04-01T00:00:00Z")
		v.Set("endDate", "2025-04-03T00:00:00Z")
		for k, vals := range extra {
			v[k] = vals
		}
		c, rec := NewTestContext(http.MethodGet, "/api/logs?"+v.Encode(), nil)
		require.NoError(t, h.List(c))
		require.Equal(t, http.StatusOK, rec.Code)
		var out []api.LogEntry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}

	all := query(nil)
	require.Len(t, all, 2)
	assert.Equal(t, "Medical Kit #42", all[0].ItemName, "newest first")
	assert.Equal(t, base.Add(2*time.Hour), all[0].Timestamp)
	assert.Equal(t, "T-15", all[1].ItemID)

	byUser := query(url.Values{"userId": {"johnson"}})
	require.Len(t, byUser, 1)
	assert.Equal(t, api.ActionRetrieval, byUser[0].ActionType)

	byAction := query(url.Values{"actionType": {api.ActionDisposal}})
	assert.Empty(t, byAction, "outside the date range")

	byItem := query(url.Values{"itemId": {"ISS-42"}, "endDate": {"2025-05-01T00:00:00Z"}})
	assert.Len(t, byItem, 2)
}

func TestLogsList_BadDates(t *testing.T) {
	store, cleanup := NewTestStorage()
	defer cleanup()
	h := NewLogsHandler(store)

	tests := []struct {
		name      string
		query     string
		wantError string
	}{
		{name: "missing both", query: "", wantError: "Start and end dates are required"},
		{name: "missing end", query: "startDate=2025-04-01T00:00:00Z", wantError: "Start and end dates are required"},
		{name: "bad start", query: "startDate=yesterday&endDate=2025-04-01T00:00:00Z", wantError: "startDate must be an RFC3339 timestamp"},
		{name: "bad end", query: "startDate=2025-04-01T00:00:00Z&endDate=2025-04-31", wantError: "endDate must be an RFC3339 timestamp"},
		{name: "reversed", query: "startDate=2025-04-02T00:00:00Z&endDate=2025-04-01T00:00:00Z", wantError: "endDate is before startDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := NewTestContext(http.MethodGet, "/api/logs?"+tt.query, nil)
			require.NoError(t, h.List(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			body, err := AssertJSONResponse(rec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestStationHandler(t *testing.T) {
	store, cleanup := NewTestStorage()
	defer cleanup()
	layout, err := station.Default()
	require.NoError(t, err)
	h := NewStationHandler(store, layout)

	seedItem(t, store.Queries, api.Item{ItemID: "K-1", Name: "Freezer Rack", Module: "Kibo", MassKg: 1500})
	seedItem(t, store.Queries, api.Item{ItemID: "R-1", Name: "Spare Seal", Module: "Rassvet", MassKg: 40})

	c, rec := NewTestContext(http.MethodGet, "/api/occupancy", nil)
	require.NoError(t, h.Occupancy(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var occ api.Occupancy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &occ))
	require.Len(t, occ.Modules, 8)
	assert.Equal(t, 1, occ.Overall.Warnings)
	for _, m := range occ.Modules {
		if m.ID == "kibo" {
			assert.Equal(t, 94, m.Occupancy)
			assert.True(t, m.Warning)
		}
	}

	c, rec = NewTestContext(http.MethodGet, "/api/storage/efficiency", nil)
	require.NoError(t, h.StorageEfficiency(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var eff api.Efficiency
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eff))
	assert.Len(t, eff.ByModule, 8)
	require.NotEmpty(t, eff.Suggestions)
	assert.Contains(t, eff.Suggestions[0], "from Kibo")
}
