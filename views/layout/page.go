package layout

import (
	"github.com/loganlanou/stationcargo/internal/identity"
)

// Notice kinds
const (
	NoticeError   = "error"
	NoticeSuccess = "success"
	NoticeInfo    = "info"
)

// Notice is a dismissable notification shown above the page content.
type Notice struct {
	Kind    string
	Message string
}

// Page carries the chrome of every page.
type Page struct {
	Title       string
	Description string
	// Path is the request path, used to highlight the active navigation entry.
	Path    string
	User    *identity.User
	Loading bool
	// Protected pages are sent back to the login view when the session ends.
	Protected bool
	Notices   []Notice
}

// WithNotice returns a copy of p with n appended.
func (p Page) WithNotice(kind, message string) Page {
	p.Notices = append(append([]Notice(nil), p.Notices...), Notice{Kind: kind, Message: message})
	return p
}

type navEntry struct {
	Label string
	Href  string
}

var crewNav = []navEntry{
	{"Dashboard", "/dashboard"},
	{"Cargo", "/cargo"},
	{"Storage", "/storage"},
	{"Waste", "/waste"},
	{"Logs", "/logs"},
	{"Import / Export", "/import-export"},
}
