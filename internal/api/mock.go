package api

import (
	"context"
	"io"
	"time"
)

// Mock answers every call with the fixed demo payloads of the dashboard.
type Mock struct {
	delay time.Duration
}

func NewMock(delay time.Duration) *Mock {
	return &Mock{delay: delay}
}

func (m *Mock) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mock) Placement(ctx context.Context, _ PlacementRequest) (*Placement, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return DemoPlacement(), nil
}

func (m *Mock) Search(ctx context.Context, q SearchQuery) ([]Item, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if q.ItemID == "" && q.ItemName == "" {
		return nil, &Error{Status: 400, Message: "Either itemId or itemName must be provided"}
	}
	return []Item{
		{ItemID: "ISS-00123", Name: "Medical Kit", Category: "Medical", Module: "Columbus", Section: "C2", Location: "Drawer-5", MassKg: 2.4, Priority: 90},
		{ItemID: "ISS-00456", Name: "Food Container", Category: "Food", Module: "Unity", Section: "U3", Location: "Cabinet-2", MassKg: 1.1, Priority: 60},
	}, nil
}

func (m *Mock) IdentifyWaste(ctx context.Context) (*WasteReport, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return DemoWasteReport(), nil
}

func (m *Mock) SimulateDay(ctx context.Context, _ string) (*SimulationResult, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return &SimulationResult{Success: true, Message: "Day simulation completed"}, nil
}

func (m *Mock) ImportItems(ctx context.Context, _ string, r io.Reader) (*ImportResult, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return &ImportResult{
		Success:        true,
		ItemsProcessed: 24,
		ItemsAdded:     18,
		ItemsUpdated:   6,
		Warnings:       []string{},
	}, nil
}

func (m *Mock) ExportItems(ctx context.Context) ([]Item, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return []Item{
		{ItemID: "ISS-00123", Name: "Medical Kit", Category: "Medical", Module: "Columbus", Section: "C2", Location: "Drawer-5", MassKg: 2.4, Priority: 90, ExpiryDate: "2026-01-31"},
		{ItemID: "ISS-00456", Name: "Food Container", Category: "Food", Module: "Unity", Section: "U3", Location: "Cabinet-2", MassKg: 1.1, Priority: 60, ExpiryDate: "2025-06-30"},
		{ItemID: "ISS-00789", Name: "Tool Set T-15", Category: "Technical", Module: "Destiny", Section: "D2", Location: "Cabinet-1", MassKg: 6.8, Priority: 40, UsageLimit: 200},
	}, nil
}

func (m *Mock) Logs(ctx context.Context, _ LogQuery) ([]LogEntry, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return []LogEntry{
		{ID: 1, Timestamp: time.Date(2025, 4, 3, 14, 32, 0, 0, time.UTC), UserID: "user1", ActionType: ActionPlacement, ItemID: "ISS-00123", ItemName: "Medical Kit", Location: "Columbus/C2/Drawer-5"},
		{ID: 2, Timestamp: time.Date(2025, 4, 2, 10, 15, 0, 0, time.UTC), UserID: "user2", ActionType: ActionRetrieval, ItemID: "ISS-00456", ItemName: "Food Container", Location: "Unity/U3/Cabinet-2"},
	}, nil
}

func (m *Mock) Occupancy(ctx context.Context) (*Occupancy, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return &Occupancy{
		Modules: []ModuleOccupancy{
			{Name: "Unity", ID: "unity", Occupancy: 75},
			{Name: "Destiny", ID: "destiny", Occupancy: 88, Warning: true},
			{Name: "Harmony", ID: "harmony", Occupancy: 62},
			{Name: "Columbus", ID: "columbus", Occupancy: 45},
			{Name: "Kibo", ID: "kibo", Occupancy: 91, Warning: true},
			{Name: "Zvezda", ID: "zvezda", Occupancy: 79},
			{Name: "Zarya", ID: "zarya", Occupancy: 82, Warning: true},
			{Name: "Rassvet", ID: "rassvet", Occupancy: 54},
		},
		Overall: OverallOccupancy{Occupancy: 72, Efficiency: 68, Warnings: 3},
	}, nil
}

func (m *Mock) StorageEfficiency(ctx context.Context) (*Efficiency, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return &Efficiency{
		Overall: 68,
		ByModule: []ModuleEfficiency{
			{Name: "Unity", Efficiency: 65},
			{Name: "Destiny", Efficiency: 72},
			{Name: "Harmony", Efficiency: 81},
			{Name: "Columbus", Efficiency: 59},
			{Name: "Kibo", Efficiency: 43},
			{Name: "Zvezda", Efficiency: 75},
			{Name: "Zarya", Efficiency: 66},
			{Name: "Rassvet", Efficiency: 77},
		},
		Suggestions: []string{
			"Reorganize Unity compartments 3-7 to improve access to frequently used items",
			"Consolidate packaging materials in Destiny to free up 15% additional space",
			"Move low-priority equipment from Kibo to Rassvet to balance load distribution",
		},
	}, nil
}

// DemoPlacement is the fixed placement recommendation.
func DemoPlacement() *Placement {
	return &Placement{
		Location: Location{Module: "Columbus", Section: "C4", Location: "Shelf-3", Confidence: 92},
		Alternatives: []Location{
			{Module: "Destiny", Section: "D2", Location: "Cabinet-1", Confidence: 87},
			{Module: "Harmony", Section: "H5", Location: "Drawer-9", Confidence: 73},
		},
		Reasoning: []string{
			"Based on cargo dimensions and available space",
			"Proximity to related items",
			"Optimal for access frequency requirements",
		},
	}
}

// DemoWasteReport is the waste breakdown shown before any waste is recorded.
func DemoWasteReport() *WasteReport {
	return &WasteReport{
		Categories: []WasteCategory{
			{Type: "Biological", Amount: 25, Trend: "increasing"},
			{Type: "Packaging", Amount: 42, Trend: "stable"},
			{Type: "Technical", Amount: 18, Trend: "decreasing"},
			{Type: "Food", Amount: 30, Trend: "stable"},
			{Type: "Medical", Amount: 8, Trend: "increasing"},
		},
		Total:      123,
		NextPickup: "2025-04-15",
	}
}
