package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTP is the client of the cargo JSON API.
type HTTP struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (h *HTTP) Placement(ctx context.Context, req PlacementRequest) (*Placement, error) {
	var out Placement
	if err := h.doJSON(ctx, http.MethodPost, "/api/placement", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HTTP) Search(ctx context.Context, q SearchQuery) ([]Item, error) {
	v := url.Values{}
	if q.ItemID != "" {
		v.Set("itemId", q.ItemID)
	}
	if q.ItemName != "" {
		v.Set("itemName", q.ItemName)
	}
	if q.UserID != "" {
		v.Set("userId", q.UserID)
	}

	var out []Item
	if err := h.doJSON(ctx, http.MethodGet, "/api/search?"+v.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTP) IdentifyWaste(ctx context.Context) (*WasteReport, error) {
	var out WasteReport
	if err := h.doJSON(ctx, http.MethodGet, "/api/waste/identify", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HTTP) SimulateDay(ctx context.Context, userID string) (*SimulationResult, error) {
	var out SimulationResult
	body := map[string]string{"userId": userID}
	if err := h.doJSON(ctx, http.MethodPost, "/api/simulate/day", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HTTP) ImportItems(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := h.newRequest(ctx, http.MethodPost, "/api/import/items", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out ImportResult
	if err := h.send(req, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HTTP) ExportItems(ctx context.Context) ([]Item, error) {
	req, err := h.newRequest(ctx, http.MethodGet, "/api/export/items", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")

	var items []Item
	err = h.send(req, func(body io.Reader) error {
		parsed, rowErrs, err := ReadItemsCSV(body)
		if err != nil {
			return err
		}
		if len(rowErrs) > 0 {
			return fmt.Errorf("export contained invalid rows: %v", rowErrs[0])
		}
		items = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (h *HTTP) Logs(ctx context.Context, q LogQuery) ([]LogEntry, error) {
	v := url.Values{}
	v.Set("startDate", q.Start.UTC().Format(time.RFC3339))
	v.Set("endDate", q.End.UTC().Format(time.RFC3339))
	if q.ItemID != "" {
		v.Set("itemId", q.ItemID)
	}
	if q.UserID != "" {
		v.Set("userId", q.UserID)
	}
	if q.ActionType != "" {
		v.Set("actionType", q.ActionType)
	}

	var out []LogEntry
	if err := h.doJSON(ctx, http.MethodGet, "/api/logs?"+v.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTP) Occupancy(ctx context.Context) (*Occupancy, error) {
	var out Occupancy
	if err := h.doJSON(ctx, http.MethodGet, "/api/occupancy", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HTTP) StorageEfficiency(ctx context.Context) (*Efficiency, error) {
	var out Efficiency
	if err := h.doJSON(ctx, http.MethodGet, "/api/storage/efficiency", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HTTP) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := h.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return h.send(req, func(r io.Reader) error {
		if out == nil {
			return nil
		}
		return json.NewDecoder(r).Decode(out)
	})
}

func (h *HTTP) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if tok := tokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (h *HTTP) send(req *http.Request, decode func(io.Reader) error) error {
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return &Error{Message: "Network error: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}

	if err := decode(resp.Body); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
