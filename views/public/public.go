// Package public holds the pages served without a session.
package public

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/loganlanou/stationcargo/views/helpers"
	"github.com/loganlanou/stationcargo/views/layout"
)

const (
	inputClass  = "mt-1 w-full rounded border border-slate-700 bg-slate-900 px-3 py-2"
	buttonClass = "w-full rounded bg-indigo-600 px-4 py-2 font-semibold hover:bg-indigo-500"
)

type LoginForm struct {
	Email       string
	RedirectURL string
}

type RegisterForm struct {
	Name        string
	Email       string
	RedirectURL string
}

func Landing(p layout.Page) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		hw.Raw(`<section class="py-16 text-center">`)
		hw.Raw(`<h1 class="text-4xl font-bold">Cargo management for life in orbit</h1>`)
		hw.Raw(`<p class="mx-auto mt-4 max-w-2xl text-slate-300">Plan placements, find any item in seconds, keep track of waste and see how full every module is.</p>`)
		hw.Raw(`<div class="mt-8 flex justify-center gap-4">`)
		if p.User != nil {
			hw.Raw(`<a href="/dashboard" class="rounded bg-indigo-600 px-5 py-2 font-semibold">Open dashboard</a>`)
		} else {
			hw.Raw(`<a href="/login" class="rounded bg-indigo-600 px-5 py-2 font-semibold">Sign in</a>`)
			hw.Raw(`<a href="/register" class="rounded border border-slate-600 px-5 py-2">Create account</a>`)
		}
		hw.Raw(`</div></section>`)
		return hw.Err()
	}))
}

func Login(p layout.Page, f LoginForm) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		hw.Raw(`<div class="mx-auto max-w-sm"><h1 class="mb-6 text-2xl font-bold">Sign in</h1>`)
		hw.Raw(`<form method="post" action="/login" class="space-y-4">`)
		hw.Rawf(`<input type="hidden" name="redirect_url" value="%s">`, helpers.E(f.RedirectURL))
		hw.Rawf(`<label class="block">Email<input type="email" name="email" required autocomplete="email" value="%s" class="%s"></label>`, helpers.E(f.Email), inputClass)
		hw.Rawf(`<label class="block">Password<input type="password" name="password" required autocomplete="current-password" class="%s"></label>`, inputClass)
		hw.Rawf(`<button class="%s">Sign in</button></form>`, buttonClass)
		hw.Raw(`<p class="mt-4 text-sm text-slate-400">No account yet? <a class="underline" href="/register">Register</a></p></div>`)
		return hw.Err()
	}))
}

func Register(p layout.Page, f RegisterForm) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		hw.Raw(`<div class="mx-auto max-w-sm"><h1 class="mb-6 text-2xl font-bold">Create account</h1>`)
		hw.Raw(`<form method="post" action="/register" class="space-y-4">`)
		hw.Rawf(`<input type="hidden" name="redirect_url" value="%s">`, helpers.E(f.RedirectURL))
		hw.Rawf(`<label class="block">Name<input type="text" name="name" required autocomplete="name" value="%s" class="%s"></label>`, helpers.E(f.Name), inputClass)
		hw.Rawf(`<label class="block">Email<input type="email" name="email" required autocomplete="email" value="%s" class="%s"></label>`, helpers.E(f.Email), inputClass)
		hw.Rawf(`<label class="block">Password<input type="password" name="password" required minlength="8" autocomplete="new-password" class="%s"></label>`, inputClass)
		hw.Rawf(`<label class="block">Confirm password<input type="password" name="confirm_password" required minlength="8" autocomplete="new-password" class="%s"></label>`, inputClass)
		hw.Rawf(`<button class="%s">Register</button></form>`, buttonClass)
		hw.Raw(`<p class="mt-4 text-sm text-slate-400">Already registered? <a class="underline" href="/login">Sign in</a></p></div>`)
		return hw.Err()
	}))
}

// Loading is shown while the session of the device is being established.
func Loading(p layout.Page) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		hw.Raw(`<noscript><meta http-equiv="refresh" content="2"></noscript>`)
		hw.Raw(`<div id="session-loading" class="flex flex-col items-center py-24 text-slate-300">`)
		hw.Raw(`<div class="h-10 w-10 animate-spin rounded-full border-4 border-slate-700 border-t-indigo-500"></div>`)
		hw.Raw(`<p class="mt-4">Loading...</p></div>`)
		return hw.Err()
	}))
}

func NotFound(p layout.Page) templ.Component {
	return layout.Base(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := helpers.NewWriter(w)
		hw.Raw(`<div class="py-24 text-center"><h1 class="text-3xl font-bold">Page not found</h1>`)
		hw.Rawf(`<p class="mt-4 text-slate-400">Nothing is stowed at %s.</p>`, helpers.E(p.Path))
		hw.Raw(`<a href="/" class="mt-6 inline-block underline">Back to the dashboard</a></div>`)
		return hw.Err()
	}))
}
