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

type StorageData struct {
	Layout     *station.Layout
	Occupancy  *api.Occupancy
	Efficiency *api.Efficiency
}

func Storage(p layout.Page, d StorageData) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		hw.Raw(`<h1 class="mb-6 text-2xl font-bold">Storage</h1>`)
		hw.Rawf(`<img src="/station/map.png" alt="Station module map" width="%d" height="%d" class="w-full rounded-lg border border-slate-800">`,
			station.MapWidth, station.MapHeight)

		hw.Raw(`<div class="mt-6 grid gap-4 md:grid-cols-2">`)
		if d.Occupancy != nil {
			hw.Rawf(`<section class="%s"><h2 class="mb-3 font-semibold">Occupancy %s</h2>`, cardClass, helpers.E(helpers.FormatPercentage(d.Occupancy.Overall.Occupancy)))
			occupancyBars(hw, d.Layout, d.Occupancy.Modules)
			hw.Raw(`</section>`)
		}
		if d.Efficiency != nil {
			hw.Rawf(`<section class="%s"><h2 class="mb-3 font-semibold">Efficiency %s</h2><ul class="space-y-1 text-sm">`, cardClass, helpers.E(helpers.FormatPercentage(d.Efficiency.Overall)))
			for _, m := range d.Efficiency.ByModule {
				hw.Rawf(`<li class="flex justify-between"><span>%s</span><span>%s</span></li>`, helpers.E(m.Name), helpers.E(helpers.FormatPercentage(m.Efficiency)))
			}
			hw.Raw(`</ul>`)
			if len(d.Efficiency.Suggestions) > 0 {
				hw.Raw(`<h3 class="mt-4 font-semibold">Suggestions</h3><ul class="list-disc pl-5 text-sm">`)
				for _, s := range d.Efficiency.Suggestions {
					hw.Rawf(`<li>%s</li>`, helpers.E(s))
				}
				hw.Raw(`</ul>`)
			}
			hw.Raw(`</section>`)
		}
		hw.Raw(`</div>`)
		return hw.Err()
	}))
}

type ModuleData struct {
	Module    station.Module
	Occupancy api.ModuleOccupancy
	Level     string
	Items     []api.Item
}

func Module(p layout.Page, d ModuleData) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		hw.Raw(`<a href="/storage" class="text-sm underline">All modules</a>`)
		hw.Rawf(`<h1 class="mt-2 mb-6 text-2xl font-bold">%s <span class="%s">%s</span></h1>`,
			helpers.E(d.Module.Name), helpers.LevelClass(d.Level, "align-middle"), helpers.E(helpers.FormatPercentage(d.Occupancy.Occupancy)))

		hw.Raw(`<div class="grid gap-4 md:grid-cols-3">`)
		stat(hw, "Capacity", helpers.FormatKg(d.Module.CapacityKg))
		stat(hw, "Items stowed", helpers.FormatInt(len(d.Items)))
		var mass float64
		for _, it := range d.Items {
			mass += it.MassKg
		}
		stat(hw, "Stowed mass", helpers.FormatKg(mass))
		hw.Raw(`</div>`)

		if len(d.Module.Sections) > 0 {
			hw.Rawf(`<section class="mt-6 %s"><h2 class="mb-3 font-semibold">Sections</h2><div class="flex flex-wrap gap-2">`, cardClass)
			for _, s := range d.Module.Sections {
				hw.Rawf(`<span class="rounded bg-slate-800 px-2 py-1 text-sm">%s</span>`, helpers.E(s))
			}
			hw.Raw(`</div></section>`)
		}

		hw.Rawf(`<section class="mt-6 %s"><h2 class="font-semibold">Items</h2>`, cardClass)
		itemTable(hw, d.Items, true)
		hw.Raw(`</section>`)
		return hw.Err()
	}))
}
