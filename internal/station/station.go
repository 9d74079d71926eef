// Package station describes the modules of the station and derives
// occupancy and storage efficiency from the cargo they hold.
package station

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/storage/db"
)

//go:embed layout.yaml
var layoutYAML []byte

type Module struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	X          float64  `yaml:"x"`
	Y          float64  `yaml:"y"`
	Width      float64  `yaml:"width"`
	Height     float64  `yaml:"height"`
	Rotate     bool     `yaml:"rotate"`
	CapacityKg float64  `yaml:"capacity_kg"`
	Sections   []string `yaml:"sections"`
}

// Layout is the module table plus the fill thresholds used to flag modules.
type Layout struct {
	WarningPercent int      `yaml:"warning_percent"`
	CautionPercent int      `yaml:"caution_percent"`
	TargetPercent  int      `yaml:"target_percent"`
	Modules        []Module `yaml:"modules"`
}

// Default returns the embedded station layout.
func Default() (*Layout, error) {
	return Parse(layoutYAML)
}

// Parse decodes and validates a layout document.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse station layout: %w", err)
	}
	if len(l.Modules) == 0 {
		return nil, fmt.Errorf("station layout has no modules")
	}
	seen := make(map[string]bool, len(l.Modules))
	for _, m := range l.Modules {
		if m.ID == "" || m.Name == "" {
			return nil, fmt.Errorf("station layout: module without id or name")
		}
		if m.CapacityKg <= 0 {
			return nil, fmt.Errorf("station layout: module %s has no capacity", m.ID)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("station layout: duplicate module %s", m.ID)
		}
		seen[m.ID] = true
	}
	if l.WarningPercent == 0 {
		l.WarningPercent = 85
	}
	if l.CautionPercent == 0 {
		l.CautionPercent = 70
	}
	if l.TargetPercent == 0 {
		l.TargetPercent = 75
	}
	return &l, nil
}

// Module finds a module by id or name, ignoring case.
func (l *Layout) Module(key string) (Module, bool) {
	for _, m := range l.Modules {
		if strings.EqualFold(m.ID, key) || strings.EqualFold(m.Name, key) {
			return m, true
		}
	}
	return Module{}, false
}

// Names lists the module names in layout order.
func (l *Layout) Names() []string {
	names := make([]string, len(l.Modules))
	for i, m := range l.Modules {
		names[i] = m.Name
	}
	return names
}

// Level classifies an occupancy percentage: "warning", "caution" or "nominal".
func (l *Layout) Level(percent int) string {
	switch {
	case percent > l.WarningPercent:
		return "warning"
	case percent > l.CautionPercent:
		return "caution"
	default:
		return "nominal"
	}
}

func (l *Layout) massByModule(loads []db.ModuleLoad) map[string]float64 {
	mass := make(map[string]float64, len(l.Modules))
	for _, ld := range loads {
		if m, ok := l.Module(ld.Module); ok {
			mass[m.ID] += ld.MassKg
		}
	}
	return mass
}

func percent(part, whole float64) int {
	if whole <= 0 {
		return 0
	}
	p := int(math.Round(part / whole * 100))
	if p > 100 {
		return 100
	}
	return p
}

// efficiency scores how close a module sits to the target fill: 100 at the
// target, falling linearly to 0 when empty or full.
func (l *Layout) efficiency(occupancy int) int {
	target := float64(l.TargetPercent)
	diff := float64(occupancy) - target
	span := target
	if diff > 0 {
		span = 100 - target
	}
	if span <= 0 {
		return 0
	}
	score := 100 - math.Abs(diff)/span*100
	if score < 0 {
		return 0
	}
	return int(math.Round(score))
}

// Occupancy computes the fill level of every module from the live cargo
// loads. Loads for modules not in the layout are ignored.
func (l *Layout) Occupancy(loads []db.ModuleLoad) *api.Occupancy {
	mass := l.massByModule(loads)

	out := &api.Occupancy{Modules: make([]api.ModuleOccupancy, 0, len(l.Modules))}
	var totalMass, totalCapacity float64
	effSum := 0
	for _, m := range l.Modules {
		occ := percent(mass[m.ID], m.CapacityKg)
		warn := occ > l.WarningPercent
		if warn {
			out.Overall.Warnings++
		}
		out.Modules = append(out.Modules, api.ModuleOccupancy{
			Name:      m.Name,
			ID:        m.ID,
			Occupancy: occ,
			Warning:   warn,
		})
		totalMass += mass[m.ID]
		totalCapacity += m.CapacityKg
		effSum += l.efficiency(occ)
	}
	out.Overall.Occupancy = percent(totalMass, totalCapacity)
	out.Overall.Efficiency = int(math.Round(float64(effSum) / float64(len(l.Modules))))
	return out
}

// Efficiency scores every module and suggests moves from the fullest
// modules to the emptiest ones.
func (l *Layout) Efficiency(loads []db.ModuleLoad) *api.Efficiency {
	occ := l.Occupancy(loads)

	out := &api.Efficiency{
		Overall:  occ.Overall.Efficiency,
		ByModule: make([]api.ModuleEfficiency, len(occ.Modules)),
	}
	for i, m := range occ.Modules {
		out.ByModule[i] = api.ModuleEfficiency{Name: m.Name, Efficiency: l.efficiency(m.Occupancy)}
	}

	byFill := make([]api.ModuleOccupancy, len(occ.Modules))
	copy(byFill, occ.Modules)
	sort.SliceStable(byFill, func(i, j int) bool { return byFill[i].Occupancy > byFill[j].Occupancy })

	low := len(byFill) - 1
	for _, full := range byFill {
		if full.Occupancy <= l.WarningPercent || low < 0 {
			break
		}
		target := byFill[low]
		if target.Occupancy >= l.CautionPercent || target.ID == full.ID {
			break
		}
		out.Suggestions = append(out.Suggestions, fmt.Sprintf(
			"Move low-priority items from %s (%d%%) to %s (%d%%) to balance load distribution",
			full.Name, full.Occupancy, target.Name, target.Occupancy))
		low--
	}
	for _, m := range byFill {
		if m.Occupancy > 0 && m.Occupancy < l.TargetPercent/3 {
			out.Suggestions = append(out.Suggestions, fmt.Sprintf(
				"Consolidate the few items stored in %s to free the module for incoming cargo", m.Name))
		}
	}
	if len(out.Suggestions) == 0 {
		out.Suggestions = []string{"Storage is balanced across all modules"}
	}
	return out
}
