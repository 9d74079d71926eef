// Package guard decides what a protected page shows for a session state:
// a loading view while the session is settling, a redirect to the login
// view when nobody is signed in, or the page itself.
package guard

import (
	"net/url"
	"sync"

	"github.com/loganlanou/stationcargo/internal/session"
)

// LoginPath is the public page unauthenticated visitors are sent to.
const LoginPath = "/login"

// Status is the three-way classification of a session state.
type Status int

const (
	Pending Status = iota
	Unauthenticated
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Classify projects a session state onto a Status.
func Classify(st session.State) Status {
	switch {
	case st.Loading:
		return Pending
	case st.User == nil:
		return Unauthenticated
	default:
		return Authenticated
	}
}

// Decision is what the protected region renders.
type Decision struct {
	Status Status
	// RedirectTo is set while unauthenticated: the login view carrying the
	// originally requested path.
	RedirectTo string
}

// ShowContent reports whether protected content may be rendered.
func (d Decision) ShowContent() bool {
	return d.Status == Authenticated
}

// Navigator performs client navigations on behalf of a mounted guard.
type Navigator interface {
	Redirect(to string)
	// Refresh asks a page that is showing the loading view to render again.
	Refresh()
}

// PageTracker is implemented by navigators that know whether the device
// still has a protected page open, e.g. in another tab. Such a page keeps
// the protected region mounted after a public request released it.
type PageTracker interface {
	ShowingProtected() bool
}

// Source is a session state publisher. *session.Store satisfies it.
type Source interface {
	State() session.State
	Subscribe(fn session.Observer) func()
}

// LoginURL builds the login redirect target for a requested path.
func LoginURL(requested string) string {
	if requested == "" || requested == LoginPath {
		return LoginPath
	}
	return LoginPath + "?redirect_url=" + url.QueryEscape(requested)
}

// Guard is the route guard of one device. It never mutates the session.
type Guard struct {
	nav Navigator

	mu          sync.Mutex
	status      Status
	mounted     bool
	path        string
	navigated   bool
	showingWait bool
}

// New creates a guard that navigates through nav. A nil nav is allowed when
// only HTTP decisions are needed.
func New(nav Navigator) *Guard {
	return &Guard{nav: nav, status: Pending}
}

// Watch evaluates the current state of src and every later transition.
// The returned func stops watching.
func (g *Guard) Watch(src Source) func() {
	stop := src.Subscribe(func(st session.State) { g.Evaluate(st) })
	g.Evaluate(src.State())
	return stop
}

// Evaluate re-classifies the session. While mounted it issues at most one
// redirect per unauthenticated episode, and a refresh when a page that was
// waiting becomes authenticated.
func (g *Guard) Evaluate(st session.State) Decision {
	status := Classify(st)
	open := g.showingProtected()

	g.mu.Lock()
	g.status = status
	var redirect string
	refresh := false
	active := g.mounted || open

	switch status {
	case Authenticated:
		// only authentication ends an episode
		g.navigated = false
		if active && g.showingWait {
			refresh = true
			g.showingWait = false
		}
	case Unauthenticated:
		if active && !g.navigated {
			g.navigated = true
			redirect = LoginURL(g.path)
		}
	case Pending:
		if active {
			g.showingWait = true
		}
	}
	d := g.decisionLocked()
	g.mu.Unlock()

	if g.nav != nil {
		if redirect != "" {
			g.nav.Redirect(redirect)
		}
		if refresh {
			g.nav.Refresh()
		}
	}
	return d
}

func (g *Guard) showingProtected() bool {
	if pt, ok := g.nav.(PageTracker); ok {
		return pt.ShowingProtected()
	}
	return false
}

// Enter mounts the protected region for a page request of path and returns
// what to serve. A page request is a new navigation by the visitor, so an
// unauthenticated device is always answered with the redirect, and the
// current episode counts as navigated.
func (g *Guard) Enter(path string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.mounted = true
	g.path = path
	switch g.status {
	case Unauthenticated:
		g.navigated = true
		g.showingWait = true
	case Pending:
		g.showingWait = true
	case Authenticated:
		g.showingWait = false
	}
	return g.decisionLocked()
}

// Leave unmounts the protected region, e.g. when a public page is served.
func (g *Guard) Leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mounted = false
	g.showingWait = false
}

// Decision returns the decision for the last evaluated state.
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decisionLocked()
}

// Mounted reports whether a protected page is currently shown.
func (g *Guard) Mounted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mounted
}

func (g *Guard) decisionLocked() Decision {
	d := Decision{Status: g.status}
	if g.status == Unauthenticated {
		d.RedirectTo = LoginURL(g.path)
	}
	return d
}
