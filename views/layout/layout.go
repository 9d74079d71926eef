package layout

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/loganlanou/stationcargo/views/helpers"
)

const liveScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var query = "";
  if (document.body.dataset.protected) {
    query = "?protected=1&page=" + encodeURIComponent(location.pathname + location.search);
  }
  var ws = new WebSocket(proto + location.host + "/live" + query);
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === "redirect") { location.assign(msg.to); }
    else if (msg.type === "refresh") { location.reload(); }
    else if (msg.type === "session") {
      var el = document.getElementById("session-chrome");
      if (!el) { return; }
      if (msg.loading) { el.dataset.state = "loading"; }
      else if (msg.user) { el.dataset.state = "signed-in"; el.querySelector("[data-name]").textContent = msg.user.name; }
      else { el.dataset.state = "signed-out"; }
    }
  };
  document.addEventListener("submit", function () { ws.close(); });
  document.addEventListener("click", function (ev) {
    var btn = ev.target.closest("[data-dismiss]");
    if (btn) { btn.parentElement.remove(); }
  });
})();
</script>`

// Base wraps body in the document shell: head, navigation, notices and the
// live channel script.
func Base(p Page, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		title := "Station Cargo"
		if p.Title != "" {
			title = p.Title + " | Station Cargo"
		}

		hw.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.Rawf(`<title>%s</title>`, helpers.E(title))
		if p.Description != "" {
			hw.Rawf(`<meta name="description" content="%s">`, helpers.E(p.Description))
		}
		hw.Raw(`<link rel="stylesheet" href="/public/css/styles.css"></head>`)
		if p.Protected {
			hw.Raw(`<body class="min-h-screen bg-slate-950 text-slate-100" data-protected="true">`)
		} else {
			hw.Raw(`<body class="min-h-screen bg-slate-950 text-slate-100">`)
		}

		header(hw, p)

		hw.Raw(`<main class="mx-auto max-w-6xl px-4 py-6">`)
		notices(hw, p.Notices)
		hw.Render(ctx, body)
		hw.Raw(`</main>`)

		hw.Raw(liveScript)
		hw.Raw(`</body></html>`)
		return hw.Err()
	})
}

func header(hw *helpers.Writer, p Page) {
	hw.Raw(`<header class="border-b border-slate-800 bg-slate-900"><div class="mx-auto flex max-w-6xl items-center justify-between px-4 py-3">`)
	hw.Raw(`<a href="/" class="text-lg font-bold tracking-wide">Station Cargo</a>`)

	if p.User != nil {
		hw.Raw(`<nav class="flex gap-4 text-sm">`)
		for _, n := range crewNav {
			cls := "text-slate-300 hover:text-white"
			if p.Path == n.Href || strings.HasPrefix(p.Path, n.Href+"/") {
				cls = helpers.Classes(cls, "text-white font-semibold")
			}
			hw.Rawf(`<a href="%s" class="%s">%s</a>`, n.Href, cls, helpers.E(n.Label))
		}
		hw.Raw(`</nav>`)
	}

	state := "signed-out"
	switch {
	case p.Loading:
		state = "loading"
	case p.User != nil:
		state = "signed-in"
	}
	hw.Rawf(`<div id="session-chrome" data-state="%s" class="flex items-center gap-3 text-sm">`, state)
	switch state {
	case "loading":
		hw.Raw(`<span data-name class="text-slate-400">Checking session...</span>`)
	case "signed-in":
		hw.Rawf(`<span data-name>%s</span>`, helpers.E(p.User.DisplayName()))
		if p.User.Role != "" {
			hw.Rawf(`<span class="text-slate-400">%s</span>`, helpers.E(p.User.Role))
		}
		hw.Rawf(`<form method="post" action="/profile/refresh"><input type="hidden" name="from" value="%s">`, helpers.E(p.Path))
		hw.Raw(`<button class="text-slate-300 hover:text-white">Refresh profile</button></form>`)
		hw.Raw(`<form method="post" action="/logout"><button class="rounded bg-slate-700 px-3 py-1 hover:bg-slate-600">Sign out</button></form>`)
	default:
		hw.Raw(`<span data-name></span><a href="/login" class="hover:text-white">Sign in</a>`)
		hw.Raw(`<a href="/register" class="rounded bg-indigo-600 px-3 py-1 hover:bg-indigo-500">Register</a>`)
	}
	hw.Raw(`</div></div></header>`)
}

func notices(hw *helpers.Writer, ns []Notice) {
	for _, n := range ns {
		cls := "mb-4 flex items-start justify-between rounded border px-4 py-3 text-sm border-sky-700 bg-sky-950"
		switch n.Kind {
		case NoticeError:
			cls = helpers.Classes(cls, "border-red-700 bg-red-950")
		case NoticeSuccess:
			cls = helpers.Classes(cls, "border-emerald-700 bg-emerald-950")
		}
		hw.Rawf(`<div role="alert" class="%s"><span>%s</span>`, cls, helpers.E(n.Message))
		hw.Raw(`<button type="button" data-dismiss aria-label="Dismiss" class="ml-4 text-slate-400 hover:text-white">&times;</button></div>`)
	}
}
