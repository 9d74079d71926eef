package crew

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/views/helpers"
	"github.com/loganlanou/stationcargo/views/layout"
)

type WasteData struct {
	Report *api.WasteReport
	Result *api.SimulationResult
}

func Waste(p layout.Page, d WasteData) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		hw.Raw(`<div class="mb-6 flex items-center justify-between"><h1 class="text-2xl font-bold">Waste</h1>`)
		hw.Rawf(`<form method="post" action="/waste/simulate"><button class="%s">Simulate next day</button></form></div>`, buttonClass)

		if d.Result != nil {
			hw.Rawf(`<div id="simulation" class="mb-4 %s text-sm"><p class="font-semibold">%s</p>`, cardClass, helpers.E(d.Result.Message))
			if d.Result.Day != "" {
				hw.Rawf(`<p>Station day %s: %d expired, %d depleted.</p>`, helpers.E(d.Result.Day), d.Result.Expired, d.Result.Depleted)
			}
			hw.Raw(`</div>`)
		}

		if d.Report == nil {
			return hw.Err()
		}
		hw.Rawf(`<section class="%s"><p class="text-3xl font-bold">%s</p>`, cardClass, helpers.E(helpers.FormatKg(d.Report.Total)))
		hw.Rawf(`<p class="text-sm text-slate-400">Next pickup %s</p>`, helpers.E(helpers.FormatStationDate(d.Report.NextPickup)))
		hw.Raw(`<table class="mt-4 w-full text-left text-sm"><thead class="text-slate-400"><tr><th class="py-1">Category</th><th>Amount</th><th>Trend</th></tr></thead><tbody>`)
		for _, c := range d.Report.Categories {
			hw.Rawf(`<tr class="border-t border-slate-800"><td class="py-1">%s</td><td>%s</td><td>%s</td></tr>`,
				helpers.E(c.Type), helpers.E(helpers.FormatKg(c.Amount)), helpers.E(c.Trend))
		}
		hw.Raw(`</tbody></table></section>`)
		return hw.Err()
	}))
}

// LogFilter is the logs form as submitted, dates as YYYY-MM-DD.
type LogFilter struct {
	StartDate  string
	EndDate    string
	ItemID     string
	UserID     string
	ActionType string
}

type LogsData struct {
	Filter  LogFilter
	Entries []api.LogEntry
}

var actionTypes = []string{
	api.ActionPlacement, api.ActionRetrieval, api.ActionRearrangement,
	api.ActionDisposal, api.ActionSimulation, api.ActionImport,
}

func Logs(p layout.Page, d LogsData) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		f := d.Filter
		hw.Raw(`<h1 class="mb-6 text-2xl font-bold">Activity logs</h1>`)
		hw.Raw(`<form method="get" action="/logs" class="mb-6 flex flex-wrap items-end gap-3 text-sm">`)
		hw.Rawf(`<label>From<input type="date" name="startDate" value="%s" class="ml-2 %s"></label>`, helpers.E(f.StartDate), inputClass)
		hw.Rawf(`<label>To<input type="date" name="endDate" value="%s" class="ml-2 %s"></label>`, helpers.E(f.EndDate), inputClass)
		hw.Rawf(`<input name="itemId" placeholder="Item ID" value="%s" class="%s">`, helpers.E(f.ItemID), inputClass)
		hw.Rawf(`<input name="userId" placeholder="User ID" value="%s" class="%s">`, helpers.E(f.UserID), inputClass)
		hw.Rawf(`<select name="actionType" class="%s"><option value="">All actions</option>`, inputClass)
		for _, a := range actionTypes {
			sel := ""
			if a == f.ActionType {
				sel = " selected"
			}
			hw.Rawf(`<option%s>%s</option>`, sel, a)
		}
		hw.Rawf(`</select><button class="%s">Filter</button></form>`, buttonClass)

		hw.Rawf(`<section class="%s">`, cardClass)
		logTable(hw, d.Entries)
		hw.Raw(`</section>`)
		return hw.Err()
	}))
}

type ImportExportData struct {
	Result    *api.ImportResult
	MaxUpload int64
}

func ImportExport(p layout.Page, d ImportExportData) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		hw.Raw(`<h1 class="mb-6 text-2xl font-bold">Import / Export</h1><div class="grid gap-6 md:grid-cols-2">`)

		hw.Rawf(`<section class="%s"><h2 class="mb-3 font-semibold">Import items</h2>`, cardClass)
		hw.Raw(`<form method="post" action="/import-export/import" enctype="multipart/form-data" class="grid gap-3">`)
		hw.Rawf(`<input type="file" name="file" accept=".csv,text/csv" required class="%s">`, inputClass)
		hw.Rawf(`<p class="text-xs text-slate-400">CSV up to %d MB.</p>`, d.MaxUpload>>20)
		hw.Rawf(`<button class="%s">Upload</button></form>`, buttonClass)
		if r := d.Result; r != nil {
			hw.Raw(`<div id="import-result" class="mt-4 text-sm">`)
			hw.Rawf(`<p>%d processed, %d added, %d updated, %d errors.</p>`, r.ItemsProcessed, r.ItemsAdded, r.ItemsUpdated, r.Errors)
			if len(r.Warnings) > 0 {
				hw.Raw(`<ul class="mt-2 list-disc pl-5 text-amber-300">`)
				for _, wn := range r.Warnings {
					hw.Rawf(`<li>%s</li>`, helpers.E(wn))
				}
				hw.Raw(`</ul>`)
			}
			hw.Raw(`</div>`)
		}
		hw.Raw(`</section>`)

		hw.Rawf(`<section class="%s"><h2 class="mb-3 font-semibold">Export</h2><ul class="space-y-2 text-sm">`, cardClass)
		hw.Raw(`<li><a class="underline" href="/import-export/export.csv">Cargo items (CSV)</a></li>`)
		hw.Raw(`<li><a class="underline" href="/import-export/manifest.pdf">Cargo manifest (PDF)</a></li>`)
		hw.Raw(`</ul></section></div>`)
		return hw.Err()
	}))
}
