// Package crew holds the pages behind the route guard.
package crew

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/internal/station"
	"github.com/loganlanou/stationcargo/views/helpers"
	"github.com/loganlanou/stationcargo/views/layout"
)

const (
	cardClass   = "rounded-lg border border-slate-800 bg-slate-900 p-4"
	inputClass  = "rounded border border-slate-700 bg-slate-950 px-3 py-2"
	buttonClass = "rounded bg-indigo-600 px-4 py-2 font-semibold hover:bg-indigo-500"
)

type DashboardData struct {
	Layout     *station.Layout
	Occupancy  *api.Occupancy
	Efficiency *api.Efficiency
	Waste      *api.WasteReport
	Recent     []api.LogEntry
}

func Dashboard(p layout.Page, d DashboardData) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		name := ""
		if p.User != nil {
			name = p.User.DisplayName()
		}
		hw.Rawf(`<h1 class="mb-6 text-2xl font-bold">Welcome back, %s</h1>`, helpers.E(name))

		hw.Raw(`<div class="grid gap-4 md:grid-cols-3">`)
		if d.Occupancy != nil {
			stat(hw, "Station occupancy", helpers.FormatPercentage(d.Occupancy.Overall.Occupancy))
			stat(hw, "Module warnings", helpers.FormatInt(d.Occupancy.Overall.Warnings))
		}
		if d.Efficiency != nil {
			stat(hw, "Storage efficiency", helpers.FormatPercentage(d.Efficiency.Overall))
		}
		hw.Raw(`</div>`)

		hw.Raw(`<div class="mt-6 grid gap-4 md:grid-cols-2">`)
		if d.Occupancy != nil {
			hw.Rawf(`<section class="%s"><h2 class="mb-3 font-semibold">Modules</h2>`, cardClass)
			occupancyBars(hw, d.Layout, d.Occupancy.Modules)
			hw.Raw(`</section>`)
		}
		if d.Waste != nil {
			hw.Rawf(`<section class="%s"><h2 class="mb-3 font-semibold">Waste</h2>`, cardClass)
			hw.Rawf(`<p class="text-3xl font-bold">%s</p>`, helpers.E(helpers.FormatKg(d.Waste.Total)))
			hw.Rawf(`<p class="text-sm text-slate-400">Next pickup %s</p>`, helpers.E(helpers.FormatStationDate(d.Waste.NextPickup)))
			hw.Raw(`<a href="/waste" class="mt-3 inline-block text-sm underline">Manage waste</a></section>`)
		}
		hw.Raw(`</div>`)

		if d.Efficiency != nil && len(d.Efficiency.Suggestions) > 0 {
			hw.Rawf(`<section class="mt-6 %s"><h2 class="mb-3 font-semibold">Suggestions</h2><ul class="list-disc pl-5 text-sm">`, cardClass)
			for _, s := range d.Efficiency.Suggestions {
				hw.Rawf(`<li>%s</li>`, helpers.E(s))
			}
			hw.Raw(`</ul></section>`)
		}

		hw.Rawf(`<section class="mt-6 %s"><h2 class="mb-3 font-semibold">Recent activity</h2>`, cardClass)
		logTable(hw, d.Recent)
		hw.Raw(`</section>`)
		return hw.Err()
	}))
}

func stat(hw *helpers.Writer, label, value string) {
	hw.Rawf(`<div class="%s"><p class="text-sm text-slate-400">%s</p><p class="text-3xl font-bold">%s</p></div>`,
		cardClass, helpers.E(label), helpers.E(value))
}

func occupancyBars(hw *helpers.Writer, l *station.Layout, modules []api.ModuleOccupancy) {
	hw.Raw(`<ul class="space-y-2">`)
	for _, m := range modules {
		level := "nominal"
		if l != nil {
			level = l.Level(m.Occupancy)
		} else if m.Warning {
			level = "warning"
		}
		pct := min(max(m.Occupancy, 0), 100)
		hw.Raw(`<li>`)
		hw.Rawf(`<div class="flex justify-between text-sm"><a class="hover:underline" href="/module/%s">%s</a><span class="%s">%s</span></div>`,
			helpers.E(moduleKey(m)), helpers.E(m.Name), helpers.LevelClass(level), helpers.E(helpers.FormatPercentage(m.Occupancy)))
		hw.Rawf(`<div class="mt-1 h-2 rounded bg-slate-800"><div class="%s" style="width: %d%%"></div></div>`, helpers.BarClass(level), pct)
		hw.Raw(`</li>`)
	}
	hw.Raw(`</ul>`)
}

func moduleKey(m api.ModuleOccupancy) string {
	if m.ID != "" {
		return m.ID
	}
	return m.Name
}

func logTable(hw *helpers.Writer, entries []api.LogEntry) {
	if len(entries) == 0 {
		hw.Raw(`<p class="text-sm text-slate-400">No activity recorded.</p>`)
		return
	}
	hw.Raw(`<table class="w-full text-left text-sm"><thead class="text-slate-400"><tr>`)
	hw.Raw(`<th class="py-1">Time</th><th>User</th><th>Action</th><th>Item</th><th>Location</th><th>Details</th></tr></thead><tbody>`)
	for _, e := range entries {
		item := e.ItemName
		if item == "" {
			item = e.ItemID
		}
		hw.Rawf(`<tr class="border-t border-slate-800"><td class="py-1">%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			helpers.E(helpers.FormatDateTime(e.Timestamp)), helpers.E(e.UserID), helpers.E(e.ActionType),
			helpers.E(item), helpers.E(e.Location), helpers.E(e.Details))
	}
	hw.Raw(`</tbody></table>`)
}
