package crew

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/views/helpers"
	"github.com/loganlanou/stationcargo/views/layout"
)

type CargoData struct {
	Modules   []string
	Form      api.PlacementRequest
	Placement *api.Placement
	Query     api.SearchQuery
	Searched  bool
	Results   []api.Item
}

func Cargo(p layout.Page, d CargoData) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		hw.Raw(`<h1 class="mb-6 text-2xl font-bold">Cargo</h1><div class="grid gap-6 md:grid-cols-2">`)

		hw.Rawf(`<section class="%s"><h2 class="mb-3 font-semibold">Place an item</h2>`, cardClass)
		hw.Raw(`<form method="post" action="/cargo/placement" class="grid gap-3">`)
		hw.Rawf(`<input name="itemId" placeholder="Item ID" value="%s" class="%s">`, helpers.E(d.Form.ItemID), inputClass)
		hw.Rawf(`<input name="name" placeholder="Name" required value="%s" class="%s">`, helpers.E(d.Form.Name), inputClass)
		hw.Rawf(`<input name="category" placeholder="Category" value="%s" class="%s">`, helpers.E(d.Form.Category), inputClass)
		hw.Rawf(`<input name="massKg" type="number" step="0.01" min="0" placeholder="Mass (kg)" value="%s" class="%s">`, formatMass(d.Form.MassKg), inputClass)
		hw.Rawf(`<input name="priority" type="number" min="0" max="100" placeholder="Priority" value="%s" class="%s">`, formatPriority(d.Form.Priority), inputClass)
		hw.Rawf(`<select name="preferredModule" class="%s"><option value="">Any module</option>`, inputClass)
		for _, m := range d.Modules {
			sel := ""
			if m == d.Form.PreferredModule {
				sel = " selected"
			}
			hw.Rawf(`<option%s>%s</option>`, sel, helpers.E(m))
		}
		hw.Raw(`</select>`)
		hw.Rawf(`<button class="%s">Recommend placement</button></form>`, buttonClass)

		if d.Placement != nil {
			pl := d.Placement
			hw.Raw(`<div id="placement" class="mt-4 rounded border border-indigo-700 bg-indigo-950 p-3 text-sm">`)
			hw.Rawf(`<p class="font-semibold">%s <span class="text-slate-400">(%d%% confidence)</span></p>`, helpers.E(pl.Path()), pl.Confidence)
			if len(pl.Reasoning) > 0 {
				hw.Raw(`<ul class="mt-2 list-disc pl-5">`)
				for _, r := range pl.Reasoning {
					hw.Rawf(`<li>%s</li>`, helpers.E(r))
				}
				hw.Raw(`</ul>`)
			}
			if len(pl.Alternatives) > 0 {
				hw.Raw(`<p class="mt-2 text-slate-400">Alternatives:</p><ul class="pl-5">`)
				for _, a := range pl.Alternatives {
					hw.Rawf(`<li>%s (%d%%)</li>`, helpers.E(a.Path()), a.Confidence)
				}
				hw.Raw(`</ul>`)
			}
			hw.Raw(`</div>`)
		}
		hw.Raw(`</section>`)

		hw.Rawf(`<section class="%s"><h2 class="mb-3 font-semibold">Find an item</h2>`, cardClass)
		hw.Raw(`<form method="get" action="/cargo" class="grid gap-3">`)
		hw.Rawf(`<input name="itemId" placeholder="Item ID" value="%s" class="%s">`, helpers.E(d.Query.ItemID), inputClass)
		hw.Rawf(`<input name="itemName" placeholder="Item name" value="%s" class="%s">`, helpers.E(d.Query.ItemName), inputClass)
		hw.Rawf(`<button class="%s">Search</button></form>`, buttonClass)
		if d.Searched {
			itemTable(hw, d.Results, true)
		}
		hw.Raw(`</section></div>`)
		return hw.Err()
	}))
}

func itemTable(hw *helpers.Writer, items []api.Item, labels bool) {
	if len(items) == 0 {
		hw.Raw(`<p class="mt-4 text-sm text-slate-400">No items found.</p>`)
		return
	}
	hw.Raw(`<table class="mt-4 w-full text-left text-sm"><thead class="text-slate-400"><tr>`)
	hw.Raw(`<th class="py-1">Item</th><th>Name</th><th>Location</th><th>Mass</th><th>Expiry</th>`)
	if labels {
		hw.Raw(`<th></th>`)
	}
	hw.Raw(`</tr></thead><tbody>`)
	for _, it := range items {
		hw.Rawf(`<tr class="border-t border-slate-800"><td class="py-1">%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td>`,
			helpers.E(it.ItemID), helpers.E(it.Name), helpers.E(it.Position()), helpers.E(helpers.FormatKg(it.MassKg)), helpers.E(it.ExpiryDate))
		if labels {
			hw.Rawf(`<td><a class="underline" href="/cargo/%s/label.png">Label</a></td>`, helpers.E(url.PathEscape(it.ItemID)))
		}
		hw.Raw(`</tr>`)
	}
	hw.Raw(`</tbody></table>`)
}

func formatMass(kg float64) string {
	if kg == 0 {
		return ""
	}
	return strconv.FormatFloat(kg, 'f', -1, 64)
}

func formatPriority(p int) string {
	if p == 0 {
		return ""
	}
	return strconv.Itoa(p)
}
