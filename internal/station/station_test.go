package station

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/storage/db"
)

func TestDefaultLayout(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"Unity", "Destiny", "Harmony", "Columbus", "Kibo", "Zarya", "Zvezda", "Rassvet"}, l.Names())

	unity, ok := l.Module("UNITY")
	require.True(t, ok)
	assert.Equal(t, 489.0, unity.X)
	assert.Equal(t, 160.0, unity.Y)
	assert.True(t, unity.Rotate)

	zvezda, ok := l.Module("zvezda")
	require.True(t, ok)
	assert.False(t, zvezda.Rotate)

	_, ok = l.Module("Mir")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: "modules: []"},
		{name: "no capacity", doc: "modules:\n  - {id: a, name: A}"},
		{name: "duplicate", doc: "modules:\n  - {id: a, name: A, capacity_kg: 1}\n  - {id: a, name: B, capacity_kg: 1}"},
		{name: "not yaml", doc: "modules: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func testLayout(t *testing.T) *Layout {
	t.Helper()
	l, err := Parse([]byte(`
target_percent: 50
modules:
  - {id: a, name: Alpha, capacity_kg: 100}
  - {id: b, name: Beta, capacity_kg: 100}
  - {id: c, name: Gamma, capacity_kg: 200}
`))
	require.NoError(t, err)
	return l
}

func TestOccupancy(t *testing.T) {
	l := testLayout(t)

	occ := l.Occupancy([]db.ModuleLoad{
		{Module: "alpha", ItemCount: 3, MassKg: 90},
		{Module: "Beta", ItemCount: 1, MassKg: 50},
		{Module: "Beta", ItemCount: 1, MassKg: 250},
		{Module: "Unknown", ItemCount: 9, MassKg: 999},
	})

	require.Len(t, occ.Modules, 3)
	assert.Equal(t, api.ModuleOccupancy{Name: "Alpha", ID: "a", Occupancy: 90, Warning: true}, occ.Modules[0])
	assert.Equal(t, 100, occ.Modules[1].Occupancy, "capped at 100")
	assert.Zero(t, occ.Modules[2].Occupancy)
	assert.Equal(t, 2, occ.Overall.Warnings)
	assert.Equal(t, 98, occ.Overall.Occupancy)
}

func TestEfficiency(t *testing.T) {
	l := testLayout(t)

	eff := l.Efficiency([]db.ModuleLoad{
		{Module: "Alpha", MassKg: 95},
		{Module: "Beta", MassKg: 50},
		{Module: "Gamma", MassKg: 20},
	})

	require.Len(t, eff.ByModule, 3)
	assert.Equal(t, 100, eff.ByModule[1].Efficiency, "Beta sits on the target")
	assert.Equal(t, 10, eff.ByModule[0].Efficiency)
	assert.Equal(t, 20, eff.ByModule[2].Efficiency)
	assert.Equal(t, 43, eff.Overall)

	require.NotEmpty(t, eff.Suggestions)
	assert.Contains(t, eff.Suggestions[0], "from Alpha (95%) to Gamma (10%)")
	assert.Contains(t, eff.Suggestions, "Consolidate the few items stored in Gamma to free the module for incoming cargo")
}

func TestEfficiency_Balanced(t *testing.T) {
	l := testLayout(t)

	eff := l.Efficiency([]db.ModuleLoad{
		{Module: "Alpha", MassKg: 50},
		{Module: "Beta", MassKg: 50},
		{Module: "Gamma", MassKg: 100},
	})
	assert.Equal(t, 100, eff.Overall)
	assert.Equal(t, []string{"Storage is balanced across all modules"}, eff.Suggestions)
}

func TestLevel(t *testing.T) {
	l := testLayout(t)
	assert.Equal(t, "warning", l.Level(86))
	assert.Equal(t, "caution", l.Level(85))
	assert.Equal(t, "caution", l.Level(71))
	assert.Equal(t, "nominal", l.Level(70))
}

func TestRenderMap(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, l.RenderMap(&buf, l.Occupancy([]db.ModuleLoad{{Module: "Kibo", MassKg: 1500}})))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, MapWidth, img.Bounds().Dx())
	assert.Equal(t, MapHeight, img.Bounds().Dy())

	buf.Reset()
	require.NoError(t, l.RenderMap(&buf, nil))
	assert.NotZero(t, buf.Len())
}
